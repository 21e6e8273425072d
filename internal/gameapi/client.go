package gameapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

// HeaderProvider allows injecting per-request headers (session cookie, XSRF token).
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDialer replaces the TCP dialer, mostly for in-memory test listeners.
func WithDialer(d fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// SessionHeaders builds a HeaderProvider from a session cookie and XSRF token.
// Empty values are skipped.
func SessionHeaders(cookie, xsrf string) HeaderProvider {
	return func() map[string]string {
		return map[string]string{
			"Cookie":       cookie,
			"X-XSRF-TOKEN": xsrf,
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		logger:         zap.NewNop(),
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start creates a new session. Not retried: a repeated start would issue a
// second session.
func (c *Client) Start(ctx context.Context, req scratchdto.StartRequest) (*scratchdto.StartResponse, error) {
	var resp scratchdto.StartResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/game/start", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) State(ctx context.Context, sessionID string) (*scratchdto.StateResponse, error) {
	var resp scratchdto.StateResponse
	path := "/api/game/state/" + url.PathEscape(sessionID)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Scratch(ctx context.Context, req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
	var resp scratchdto.ScratchResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/game/scratch", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReportInteraction records the first-interaction timestamp of a round.
func (c *Client) ReportInteraction(ctx context.Context, sessionID string, at time.Time) error {
	path := "/api/game/score/" + url.PathEscape(sessionID)
	return c.doJSON(ctx, fasthttp.MethodPost, path, scratchdto.InteractionReport{Timestamp: at.UTC()}, nil, false)
}

// History returns the play history of a user.
func (c *Client) History(ctx context.Context, userID string) ([]scratchdto.HistoryItem, error) {
	var items []scratchdto.HistoryItem
	path := "/api/game/get/" + url.PathEscape(userID)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &items, true); err != nil {
		return nil, err
	}
	return items, nil
}

// call describes one JSON exchange. Only idempotent calls are retried.
type call struct {
	method     string
	path       string
	body       any
	out        any
	idempotent bool
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	return c.do(ctx, call{method: method, path: path, body: in, out: out, idempotent: retry})
}

func (c *Client) do(ctx context.Context, cl call) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	if err := c.prepare(req, cl); err != nil {
		return err
	}

	tries := 1
	if cl.idempotent && c.retryMax > 1 {
		tries = c.retryMax
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		again, err := c.exchange(ctx, req, resp, cl)
		if err == nil || !again || attempt >= tries {
			return err
		}
		c.logger.Debug("game_api_retry", zap.String("path", cl.path), zap.Int("attempt", attempt), zap.Error(err))
		if werr := wait(ctx, backoff(attempt)); werr != nil {
			return err
		}
	}
}

func (c *Client) prepare(req *fasthttp.Request, cl call) error {
	req.Header.SetMethod(cl.method)
	req.SetRequestURI(c.baseURL + cl.path)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.headers != nil {
		for k, v := range c.headers() {
			if k = strings.TrimSpace(k); k != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if cl.body == nil {
		return nil
	}
	payload, err := json.Marshal(cl.body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", cl.path, err)
	}
	req.SetBody(payload)
	return nil
}

// exchange performs one attempt and reports whether a failure is worth
// retrying for an idempotent call.
func (c *Client) exchange(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, cl call) (bool, error) {
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return true, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return retryableStatus(status), newAPIError(status, resp.Body())
	}
	body := resp.Body()
	if cl.out == nil || len(body) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return false, fmt.Errorf("decode %s: %w", cl.path, err)
	}
	return false, nil
}

// deadline is the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	own := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(own) {
		return dl
	}
	return own
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoff doubles from 100ms and caps at 3.2s.
func backoff(attempt int) time.Duration {
	n := min(max(attempt, 1), 6)
	return (100 * time.Millisecond) << (n - 1)
}

func retryableStatus(code int) bool {
	return code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}
