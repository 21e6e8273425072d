package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultGridSize     = 40
	defaultDuration     = 300
	storeTimeout        = 2 * time.Second
)

type Option func(*Controller)

func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMessages(m Messages) Option {
	return func(c *Controller) { c.messages = m }
}

// WithOrderedApply tags every request with a sequence number and drops
// responses older than the last one applied to the same field. The default
// is last-write-wins by arrival order.
func WithOrderedApply(on bool) Option {
	return func(c *Controller) { c.ordered = on }
}

func WithActiveStore(store ActiveStore, owner string) Option {
	return func(c *Controller) {
		c.store = store
		c.owner = owner
	}
}

// WithStartDefaults sets the request used when StartGame gets a zero request.
func WithStartDefaults(req scratchdto.StartRequest) Option {
	return func(c *Controller) { c.defaults = req }
}

type sessionState struct {
	id         string
	size       int
	hash       string
	score      int
	timeLeft   int
	finished   bool
	desynced   bool
	revealed   map[int]struct{}
	values     map[int]int
	starting   bool
	scratching int
	errMsg     string
	polling    bool

	// sequence of the response that last wrote the field (ordered mode)
	scoreSeq    uint64
	revealedSeq uint64
}

// Controller reconciles one client's session against the game server.
// It is safe for concurrent use; network calls run without holding the lock.
type Controller struct {
	api      API
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration
	messages Messages
	ordered  bool
	store    ActiveStore
	owner    string
	defaults scratchdto.StartRequest

	seq uint64

	mu         sync.Mutex
	st         sessionState
	pollCancel context.CancelFunc
	closed     bool
}

func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		logger:   zap.NewNop(),
		now:      time.Now,
		interval: defaultPollInterval,
		defaults: scratchdto.StartRequest{Size: defaultGridSize, DurationSeconds: defaultDuration},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.st = emptyState()
	return c
}

func emptyState() sessionState {
	return sessionState{
		revealed:   make(map[int]struct{}),
		values:     make(map[int]int),
		scratching: -1,
	}
}

func (c *Controller) nextSeq() uint64 {
	return atomic.AddUint64(&c.seq, 1)
}

func (c *Controller) text(key string) string {
	fb := fallbackMessages[key]
	if c.messages == nil {
		return fb
	}
	return c.messages.Text(key, fb)
}

// StartGame requests a new session and replaces the current one. While a
// start is in flight further calls fail with ErrBusy. On failure the
// previous state is kept and ErrorMessage is set.
func (c *Controller) StartGame(ctx context.Context, req scratchdto.StartRequest) error {
	if req == (scratchdto.StartRequest{}) {
		req = c.defaults
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.st.starting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.st.starting = true
	c.st.errMsg = ""
	c.mu.Unlock()

	resp, err := c.api.Start(ctx, req)

	c.mu.Lock()
	c.st.starting = false
	if err != nil {
		c.st.errMsg = c.text(msgStartFailed)
		c.mu.Unlock()
		c.logger.Warn("session_start_failed", zap.Error(err))
		return fmt.Errorf("start game: %w", err)
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.stopPollLocked()
	c.st = emptyState()
	c.st.id = resp.SessionID
	c.st.size = max(resp.Size, 0)
	c.st.hash = resp.ValuesHash
	c.st.timeLeft = secondsUntil(resp.ExpiresAt, c.now())
	c.startPollLocked()
	active := scratchdto.ActiveSession{
		SessionID:  resp.SessionID,
		Size:       c.st.size,
		ValuesHash: resp.ValuesHash,
		StartedAt:  c.now(),
	}
	ttl := time.Duration(c.st.timeLeft) * time.Second
	c.mu.Unlock()

	c.logger.Info("session_start",
		zap.String("session_id", resp.SessionID),
		zap.Int("size", active.Size),
		zap.Int("time_left", int(ttl/time.Second)),
	)
	if c.store != nil && ttl > 0 {
		c.storeDo("save_active", func(ctx context.Context) error {
			return c.store.SaveActive(ctx, c.owner, active, ttl)
		})
	}
	return nil
}

// Scratch reveals one cell. It returns nil without a request when there is
// no session, the session is over, the cell is already revealed or another
// scratch is in flight.
func (c *Controller) Scratch(ctx context.Context, index int) error {
	c.mu.Lock()
	if c.st.id == "" || c.st.finished || c.st.desynced || c.st.scratching >= 0 {
		c.mu.Unlock()
		return nil
	}
	if _, ok := c.st.revealed[index]; ok {
		c.mu.Unlock()
		return nil
	}
	if !c.validIndexLocked(index) {
		c.mu.Unlock()
		return fmt.Errorf("scratch %d: %w", index, ErrIndexOutOfRange)
	}
	id := c.st.id
	c.st.scratching = index
	c.st.errMsg = ""
	seq := c.nextSeq()
	c.mu.Unlock()

	resp, err := c.api.Scratch(ctx, scratchdto.ScratchRequest{SessionID: id, Index: index})

	c.mu.Lock()
	if c.st.id != id {
		// a new session replaced this one while the request was in flight
		c.mu.Unlock()
		c.logger.Debug("scratch_discarded", zap.String("session_id", id), zap.Int("index", index))
		return nil
	}
	c.st.scratching = -1

	switch {
	case err == nil:
		c.st.values[index] = resp.Value
		c.st.revealed[index] = struct{}{}
		for _, i := range resp.RevealedIndex {
			if c.validIndexLocked(i) {
				c.st.revealed[i] = struct{}{}
			}
		}
		// the merge only adds, so it applies even when stale
		c.fresh(&c.st.revealedSeq, seq)
		if c.fresh(&c.st.scoreSeq, seq) {
			c.st.score = resp.Score
		}
		ttl := time.Duration(c.st.timeLeft) * time.Second
		c.mu.Unlock()
		if c.store != nil && ttl > 0 {
			c.storeDo("remember_value", func(ctx context.Context) error {
				return c.store.RememberValue(ctx, id, index, resp.Value, ttl)
			})
		}
		return nil

	case errors.Is(err, ErrAlreadyScratched):
		c.st.revealed[index] = struct{}{}
		c.st.errMsg = c.text(msgAlreadyScratched)
		c.mu.Unlock()
		c.logger.Info("scratch_conflict", zap.String("session_id", id), zap.Int("index", index))
		return fmt.Errorf("scratch %d: %w", index, err)

	case errors.Is(err, ErrSessionExpired):
		c.st.finished = true
		c.st.errMsg = c.text(msgSessionExpired)
		c.stopPollLocked()
		c.mu.Unlock()
		c.logger.Info("session_expired", zap.String("session_id", id))
		c.clearActive()
		return fmt.Errorf("scratch %d: %w", index, err)

	default:
		c.st.errMsg = c.text(msgScratchFailed)
		c.mu.Unlock()
		c.logger.Warn("scratch_failed", zap.String("session_id", id), zap.Int("index", index), zap.Error(err))
		return fmt.Errorf("scratch %d: %w", index, err)
	}
}

// PollState fetches the authoritative state once and applies it. Errors are
// logged and otherwise ignored.
func (c *Controller) PollState(ctx context.Context) {
	_ = c.poll(ctx, nil)
}

// SurfaceRevealed takes the reveal threshold event of the scratch surface.
// The round outcome is not derived locally: the server state is fetched once
// and applied, so score and finished come from the server.
func (c *Controller) SurfaceRevealed(ctx context.Context, progress float64) error {
	c.mu.Lock()
	id := c.st.id
	c.mu.Unlock()
	if id == "" {
		return ErrNoActiveSession
	}
	c.logger.Info("surface_revealed", zap.String("session_id", id), zap.Float64("progress", progress))
	if err := c.poll(ctx, nil); err != nil {
		return fmt.Errorf("refresh revealed session %s: %w", id, err)
	}
	return nil
}

func (c *Controller) poll(ctx context.Context, loop context.Context) error {
	c.mu.Lock()
	if c.st.id == "" || c.st.finished || c.st.desynced {
		c.mu.Unlock()
		return nil
	}
	id := c.st.id
	c.mu.Unlock()

	seq := c.nextSeq()
	resp, err := c.api.State(ctx, id)
	if err != nil {
		c.logger.Debug("poll_error", zap.String("session_id", id), zap.Error(err))
		return err
	}
	c.applyState(id, seq, resp, loop)
	return nil
}

func (c *Controller) applyState(id string, seq uint64, resp *scratchdto.StateResponse, loop context.Context) {
	c.mu.Lock()
	// a stopped poller must not write
	if loop != nil && loop.Err() != nil {
		c.mu.Unlock()
		return
	}
	if c.st.id != id || c.st.finished || c.st.desynced {
		c.mu.Unlock()
		return
	}
	if resp.ValuesHash != "" && c.st.hash != "" && resp.ValuesHash != c.st.hash {
		expected := c.st.hash
		c.st.desynced = true
		c.st.errMsg = c.text(msgDesync)
		c.stopPollLocked()
		c.mu.Unlock()
		c.logger.Warn("session_desync",
			zap.String("session_id", id),
			zap.String("expected_hash", expected),
			zap.String("got_hash", resp.ValuesHash),
		)
		return
	}

	if c.fresh(&c.st.scoreSeq, seq) {
		c.st.score = resp.Score
	}
	c.st.timeLeft = max(resp.TimeLeftSeconds, 0)
	c.st.size = max(resp.Size, 0)
	if resp.ValuesHash != "" {
		c.st.hash = resp.ValuesHash
	}
	if c.fresh(&c.st.revealedSeq, seq) {
		revealed := make(map[int]struct{}, len(resp.Scratched))
		for _, i := range resp.Scratched {
			if c.validIndexLocked(i) {
				revealed[i] = struct{}{}
			}
		}
		c.st.revealed = revealed
	}
	finished := resp.Finished
	if finished {
		c.st.finished = true
		c.stopPollLocked()
	}
	c.mu.Unlock()

	if finished {
		c.logger.Info("session_finished", zap.String("session_id", id), zap.Int("score", resp.Score))
		c.clearActive()
	}
}

// fresh reports whether a response with seq may overwrite a field last
// written at *last, and records it. Always true in last-write-wins mode.
func (c *Controller) fresh(last *uint64, seq uint64) bool {
	if c.ordered && seq < *last {
		return false
	}
	if seq > *last {
		*last = seq
	}
	return true
}

func (c *Controller) validIndexLocked(i int) bool {
	return i >= 0 && (c.st.size <= 0 || i < c.st.size)
}

// Resume adopts an existing session by id and starts polling it.
func (c *Controller) Resume(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrNoActiveSession
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.st.starting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.st.starting = true
	c.st.errMsg = ""
	c.mu.Unlock()

	seq := c.nextSeq()
	resp, err := c.api.State(ctx, sessionID)

	c.mu.Lock()
	c.st.starting = false
	if err != nil {
		c.st.errMsg = c.text(msgStartFailed)
		c.mu.Unlock()
		if errors.Is(err, ErrSessionExpired) {
			c.clearActive()
		}
		return fmt.Errorf("resume session %s: %w", sessionID, err)
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopPollLocked()
	c.st = emptyState()
	c.st.id = sessionID
	c.st.size = max(resp.Size, 0)
	c.st.hash = resp.ValuesHash
	c.st.score = resp.Score
	c.st.timeLeft = max(resp.TimeLeftSeconds, 0)
	c.st.finished = resp.Finished
	c.st.scoreSeq, c.st.revealedSeq = seq, seq
	for _, i := range resp.Scratched {
		if c.validIndexLocked(i) {
			c.st.revealed[i] = struct{}{}
		}
	}
	if !c.st.finished {
		c.startPollLocked()
	}
	c.mu.Unlock()

	c.logger.Info("session_resume", zap.String("session_id", sessionID), zap.Bool("finished", resp.Finished))

	if c.store == nil {
		return nil
	}
	sctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	values, err := c.store.Values(sctx, sessionID)
	if err != nil {
		c.logger.Debug("active_store_error", zap.String("op", "values"), zap.Error(err))
		return nil
	}
	c.mu.Lock()
	if c.st.id == sessionID {
		for i, v := range values {
			if _, ok := c.st.revealed[i]; ok {
				c.st.values[i] = v
			}
		}
	}
	c.mu.Unlock()
	return nil
}

// ResumeActive resumes the session remembered for the configured owner.
func (c *Controller) ResumeActive(ctx context.Context) error {
	if c.store == nil {
		return ErrNoActiveSession
	}
	active, err := c.store.LoadActive(ctx, c.owner)
	if err != nil {
		return fmt.Errorf("load active session: %w", err)
	}
	if active == nil {
		return ErrNoActiveSession
	}
	return c.Resume(ctx, active.SessionID)
}

// ReportInteraction sends the first-interaction timestamp of the current
// round when the API supports it.
func (c *Controller) ReportInteraction(ctx context.Context) error {
	r, ok := c.api.(InteractionReporter)
	if !ok {
		return nil
	}
	c.mu.Lock()
	id := c.st.id
	c.mu.Unlock()
	if id == "" {
		return ErrNoActiveSession
	}
	if err := r.ReportInteraction(ctx, id, c.now()); err != nil {
		c.logger.Debug("interaction_report_failed", zap.String("session_id", id), zap.Error(err))
		return err
	}
	return nil
}

// Stop cancels polling. Safe to call at any time, any number of times.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopPollLocked()
	c.mu.Unlock()
}

// Close stops polling and rejects further starts.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopPollLocked()
	c.mu.Unlock()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	revealed := make([]int, 0, len(c.st.revealed))
	for i := range c.st.revealed {
		revealed = append(revealed, i)
	}
	sort.Ints(revealed)
	values := make(map[int]int, len(c.st.values))
	for k, v := range c.st.values {
		values[k] = v
	}
	return Snapshot{
		SessionID:       c.st.id,
		Size:            c.st.size,
		ValuesHash:      c.st.hash,
		Score:           c.st.score,
		TimeLeftSeconds: c.st.timeLeft,
		Finished:        c.st.finished,
		Desynced:        c.st.desynced,
		Revealed:        revealed,
		RevealedValues:  values,
		Starting:        c.st.starting,
		ScratchingIndex: c.st.scratching,
		ErrorMessage:    c.st.errMsg,
		Polling:         c.st.polling,
	}
}

func (c *Controller) startPollLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	c.st.polling = true
	go c.pollLoop(ctx, c.interval)
}

func (c *Controller) stopPollLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.st.polling = false
}

func (c *Controller) pollLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.poll(ctx, ctx)
		}
	}
}

func (c *Controller) clearActive() {
	if c.store == nil {
		return
	}
	c.storeDo("clear_active", func(ctx context.Context) error {
		return c.store.ClearActive(ctx, c.owner)
	})
}

// storeDo runs a best-effort store call detached from the caller's context.
func (c *Controller) storeDo(op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		c.logger.Debug("active_store_error", zap.String("op", op), zap.Error(err))
	}
}

func secondsUntil(t, now time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
