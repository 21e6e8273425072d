package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu           sync.Mutex
	startCalls   int
	stateCalls   int
	scratchCalls int
	reports      []string

	startGate chan struct{}
	startErr  error
	nextID    int

	stateFn   func(id string) (*scratchdto.StateResponse, error)
	scratchFn func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error)
}

func (f *fakeAPI) Start(ctx context.Context, req scratchdto.StartRequest) (*scratchdto.StartResponse, error) {
	f.mu.Lock()
	f.startCalls++
	f.nextID++
	id := fmt.Sprintf("s-%d", f.nextID)
	gate, err := f.startGate, f.startErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &scratchdto.StartResponse{
		SessionID:  id,
		Size:       req.Size,
		ValuesHash: "hash-1",
		ExpiresAt:  testNow.Add(time.Duration(req.DurationSeconds)*time.Second - 300*time.Millisecond),
	}, nil
}

func (f *fakeAPI) State(ctx context.Context, id string) (*scratchdto.StateResponse, error) {
	f.mu.Lock()
	f.stateCalls++
	fn := f.stateFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("state unavailable")
	}
	return fn(id)
}

func (f *fakeAPI) Scratch(ctx context.Context, req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
	f.mu.Lock()
	f.scratchCalls++
	fn := f.scratchFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("scratch unavailable")
	}
	return fn(req)
}

func (f *fakeAPI) ReportInteraction(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, id)
	return nil
}

func (f *fakeAPI) calls() (start, state, scratch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.stateCalls, f.scratchCalls
}

func (f *fakeAPI) setState(fn func(id string) (*scratchdto.StateResponse, error)) {
	f.mu.Lock()
	f.stateFn = fn
	f.mu.Unlock()
}

func (f *fakeAPI) setScratch(fn func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error)) {
	f.mu.Lock()
	f.scratchFn = fn
	f.mu.Unlock()
}

func newTestController(t *testing.T, api API, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithPollInterval(time.Hour),
	}, opts...)
	c := New(api, opts...)
	t.Cleanup(c.Close)
	return c
}

func startSession(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	if err := c.StartGame(context.Background(), scratchdto.StartRequest{Size: 40, DurationSeconds: 300}); err != nil {
		t.Fatalf("start: %v", err)
	}
	return c.Snapshot()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

// acceptAll returns a scratch handler for a server that reveals exactly the
// requested cell and scores one point per cell.
func acceptAll() func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
	var mu sync.Mutex
	revealed := []int{}
	return func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		revealed = append(revealed, req.Index)
		return &scratchdto.ScratchResponse{
			Value:         req.Index * 10,
			RevealedIndex: append([]int(nil), revealed...),
			Score:         len(revealed),
		}, nil
	}
}

func TestStartGameInitializesSession(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	s := startSession(t, c)

	if s.SessionID != "s-1" || s.Size != 40 || s.ValuesHash != "hash-1" {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.TimeLeftSeconds != 299 {
		t.Fatalf("time left = %d", s.TimeLeftSeconds)
	}
	if s.Score != 0 || len(s.Revealed) != 0 || s.Finished || !s.Polling || s.Starting {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.ScratchingIndex != -1 {
		t.Fatalf("scratching index = %d", s.ScratchingIndex)
	}
	if len(s.Boxes()) != 40 || s.Boxes()[39] != 39 {
		t.Fatalf("boxes = %v", s.Boxes())
	}
}

func TestStartGameUsesDefaults(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	if err := c.StartGame(context.Background(), scratchdto.StartRequest{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s := c.Snapshot(); s.Size != 40 || s.TimeLeftSeconds != 299 {
		t.Fatalf("defaults not applied: %+v", s)
	}
}

func TestStartGameExpiredClampsToZero(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	if err := c.StartGame(context.Background(), scratchdto.StartRequest{Size: 4, DurationSeconds: -10}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s := c.Snapshot(); s.TimeLeftSeconds != 0 {
		t.Fatalf("time left = %d", s.TimeLeftSeconds)
	}
}

func TestStartGameRejectedWhileBusy(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{startGate: gate}
	c := newTestController(t, api)

	done := make(chan error, 1)
	go func() {
		done <- c.StartGame(context.Background(), scratchdto.StartRequest{Size: 40, DurationSeconds: 300})
	}()
	waitFor(t, func() bool { return c.Snapshot().Starting })

	if err := c.StartGame(context.Background(), scratchdto.StartRequest{Size: 40, DurationSeconds: 300}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first start: %v", err)
	}
	if starts, _, _ := api.calls(); starts != 1 {
		t.Fatalf("start calls = %d", starts)
	}
	if s := c.Snapshot(); s.SessionID != "s-1" || s.Starting {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestStartGameFailureLeavesIdle(t *testing.T) {
	api := &fakeAPI{startErr: errors.New("boom")}
	c := newTestController(t, api)
	err := c.StartGame(context.Background(), scratchdto.StartRequest{Size: 40})
	if err == nil {
		t.Fatalf("expected error")
	}
	s := c.Snapshot()
	if s.SessionID != "" || s.Starting || s.Polling {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.ErrorMessage != "Failed to start game" {
		t.Fatalf("message = %q", s.ErrorMessage)
	}
}

func TestScratchWithoutSessionIsNoop(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	if err := c.Scratch(context.Background(), 3); err != nil {
		t.Fatalf("scratch: %v", err)
	}
	if _, _, scratches := api.calls(); scratches != 0 {
		t.Fatalf("scratch calls = %d", scratches)
	}
}

func TestScratchAlreadyRevealedIsNoop(t *testing.T) {
	api := &fakeAPI{}
	api.setScratch(func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		return &scratchdto.ScratchResponse{Value: 1, RevealedIndex: []int{2, 5}, Score: 7}, nil
	})
	c := newTestController(t, api)
	startSession(t, c)

	if err := c.Scratch(context.Background(), 2); err != nil {
		t.Fatalf("scratch: %v", err)
	}
	s := c.Snapshot()
	if len(s.Revealed) != 2 || !s.IsRevealed(2) || !s.IsRevealed(5) || s.Score != 7 {
		t.Fatalf("unexpected snapshot %+v", s)
	}

	if err := c.Scratch(context.Background(), 5); err != nil {
		t.Fatalf("scratch: %v", err)
	}
	if _, _, scratches := api.calls(); scratches != 1 {
		t.Fatalf("scratch calls = %d", scratches)
	}
	if c.Snapshot().Score != 7 {
		t.Fatalf("score changed")
	}
}

func TestScratchSerializesRequests(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{}
	handler := acceptAll()
	api.setScratch(func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		<-gate
		return handler(req)
	})
	c := newTestController(t, api)
	startSession(t, c)

	done := make(chan error, 1)
	go func() { done <- c.Scratch(context.Background(), 1) }()
	waitFor(t, func() bool { return c.Snapshot().ScratchingIndex == 1 })

	if err := c.Scratch(context.Background(), 2); err != nil {
		t.Fatalf("second scratch: %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first scratch: %v", err)
	}
	if _, _, scratches := api.calls(); scratches != 1 {
		t.Fatalf("scratch calls = %d", scratches)
	}
	if s := c.Snapshot(); s.ScratchingIndex != -1 || s.IsRevealed(2) {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestScratchConflictRevealsWithoutScoreChange(t *testing.T) {
	api := &fakeAPI{}
	api.setScratch(acceptAll())
	c := newTestController(t, api)
	startSession(t, c)
	if err := c.Scratch(context.Background(), 1); err != nil {
		t.Fatalf("scratch: %v", err)
	}

	api.setScratch(func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		return nil, fmt.Errorf("status 409: %w", scratchdto.ErrAlreadyScratched)
	})
	err := c.Scratch(context.Background(), 7)
	if !errors.Is(err, ErrAlreadyScratched) {
		t.Fatalf("expected conflict, got %v", err)
	}
	s := c.Snapshot()
	if !s.IsRevealed(7) || s.Score != 1 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.ErrorMessage != "Already scratched" || s.ScratchingIndex != -1 || s.Finished {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestScratchExpiredFinishesAndStopsPolling(t *testing.T) {
	api := &fakeAPI{}
	api.setState(func(id string) (*scratchdto.StateResponse, error) {
		return &scratchdto.StateResponse{Size: 40, ValuesHash: "hash-1", TimeLeftSeconds: 10}, nil
	})
	api.setScratch(func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		return nil, fmt.Errorf("status 410: %w", scratchdto.ErrSessionGone)
	})
	c := newTestController(t, api, WithPollInterval(2*time.Millisecond))
	startSession(t, c)
	waitFor(t, func() bool { _, states, _ := api.calls(); return states >= 2 })

	err := c.Scratch(context.Background(), 3)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	s := c.Snapshot()
	if !s.Finished || s.Polling || s.ErrorMessage != "Session expired" || s.ScratchingIndex != -1 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.IsRevealed(3) {
		t.Fatalf("expired scratch must not reveal")
	}

	// let a poll that was already past its checks land
	time.Sleep(10 * time.Millisecond)
	_, before, _ := api.calls()
	time.Sleep(20 * time.Millisecond)
	if _, after, _ := api.calls(); after != before {
		t.Fatalf("polling continued after expiry: %d -> %d", before, after)
	}
	if err := c.Scratch(context.Background(), 4); err != nil {
		t.Fatalf("scratch after finish: %v", err)
	}
	if _, _, scratches := api.calls(); scratches != 1 {
		t.Fatalf("scratch calls = %d", scratches)
	}
}

func TestScratchGenericFailureDoesNotMutate(t *testing.T) {
	api := &fakeAPI{}
	api.setScratch(acceptAll())
	c := newTestController(t, api)
	startSession(t, c)
	if err := c.Scratch(context.Background(), 0); err != nil {
		t.Fatalf("scratch: %v", err)
	}
	before := c.Snapshot()

	api.setScratch(func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		return nil, errors.New("connection reset")
	})
	if err := c.Scratch(context.Background(), 9); err == nil {
		t.Fatalf("expected error")
	}
	s := c.Snapshot()
	if s.Score != before.Score || len(s.Revealed) != len(before.Revealed) || s.IsRevealed(9) {
		t.Fatalf("state mutated: %+v", s)
	}
	if s.ErrorMessage != "Scratch failed" || s.ScratchingIndex != -1 || s.Finished {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestScratchOutOfRange(t *testing.T) {
	api := &fakeAPI{}
	api.setScratch(acceptAll())
	c := newTestController(t, api)
	startSession(t, c)
	for _, i := range []int{-1, 40} {
		if err := c.Scratch(context.Background(), i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
	if _, _, scratches := api.calls(); scratches != 0 {
		t.Fatalf("scratch calls = %d", scratches)
	}
}

func TestFullRoundTrip(t *testing.T) {
	api := &fakeAPI{}
	api.setScratch(acceptAll())
	c := newTestController(t, api)
	startSession(t, c)

	for i := 0; i < 40; i++ {
		if err := c.Scratch(context.Background(), i); err != nil {
			t.Fatalf("scratch %d: %v", i, err)
		}
	}
	s := c.Snapshot()
	if len(s.Revealed) != 40 {
		t.Fatalf("revealed = %d", len(s.Revealed))
	}
	for i, v := range s.Revealed {
		if v != i {
			t.Fatalf("revealed[%d] = %d", i, v)
		}
		if s.RevealedValues[i] != i*10 {
			t.Fatalf("value[%d] = %d", i, s.RevealedValues[i])
		}
	}
	if s.Score != 40 {
		t.Fatalf("score = %d", s.Score)
	}
}

func TestScratchDiscardedAfterNewSession(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{}
	handler := acceptAll()
	api.setScratch(func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		<-gate
		return handler(req)
	})
	c := newTestController(t, api)
	startSession(t, c)

	done := make(chan error, 1)
	go func() { done <- c.Scratch(context.Background(), 4) }()
	waitFor(t, func() bool { return c.Snapshot().ScratchingIndex == 4 })

	s2 := startSession(t, c)
	if s2.SessionID != "s-2" || s2.ScratchingIndex != -1 {
		t.Fatalf("unexpected snapshot %+v", s2)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("scratch: %v", err)
	}
	if s := c.Snapshot(); s.IsRevealed(4) || s.Score != 0 {
		t.Fatalf("stale scratch applied: %+v", s)
	}
}

func TestPollWithoutSessionIsNoop(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	c.PollState(context.Background())
	if _, states, _ := api.calls(); states != 0 {
		t.Fatalf("state calls = %d", states)
	}
}

func TestPollAppliesStateWholesale(t *testing.T) {
	api := &fakeAPI{}
	api.setScratch(acceptAll())
	c := newTestController(t, api)
	startSession(t, c)
	if err := c.Scratch(context.Background(), 1); err != nil {
		t.Fatalf("scratch: %v", err)
	}

	api.setState(func(id string) (*scratchdto.StateResponse, error) {
		return &scratchdto.StateResponse{Score: 5, TimeLeftSeconds: 120, Size: 40, ValuesHash: "hash-1", Scratched: []int{3, 4, 99}}, nil
	})
	c.PollState(context.Background())
	s := c.Snapshot()
	if s.Score != 5 || s.TimeLeftSeconds != 120 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if len(s.Revealed) != 2 || s.Revealed[0] != 3 || s.Revealed[1] != 4 {
		t.Fatalf("revealed = %v", s.Revealed)
	}
}

func TestPollSwallowsErrors(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	before := startSession(t, c)
	c.PollState(context.Background())
	s := c.Snapshot()
	if s.ErrorMessage != "" || s.Score != before.Score || s.TimeLeftSeconds != before.TimeLeftSeconds || !s.Polling {
		t.Fatalf("poll error leaked into state: %+v", s)
	}
	if _, states, _ := api.calls(); states != 1 {
		t.Fatalf("state calls = %d", states)
	}
}

func TestPollFinishedStopsPolling(t *testing.T) {
	api := &fakeAPI{}
	api.setState(func(id string) (*scratchdto.StateResponse, error) {
		return &scratchdto.StateResponse{Score: 12, Finished: true, Size: 40, ValuesHash: "hash-1"}, nil
	})
	c := newTestController(t, api, WithPollInterval(2*time.Millisecond))
	startSession(t, c)

	waitFor(t, func() bool { return c.Snapshot().Finished })
	s := c.Snapshot()
	if s.Polling || s.Score != 12 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	_, before, _ := api.calls()
	time.Sleep(20 * time.Millisecond)
	if _, after, _ := api.calls(); after != before {
		t.Fatalf("polling continued after finish: %d -> %d", before, after)
	}
}

func TestPollDesyncIsFatal(t *testing.T) {
	api := &fakeAPI{}
	api.setScratch(acceptAll())
	api.setState(func(id string) (*scratchdto.StateResponse, error) {
		return &scratchdto.StateResponse{Score: 99, Size: 40, ValuesHash: "hash-2", Scratched: []int{1, 2, 3}}, nil
	})
	c := newTestController(t, api)
	startSession(t, c)
	c.PollState(context.Background())

	s := c.Snapshot()
	if !s.Desynced || s.Polling || s.ValuesHash != "hash-1" || s.Score != 0 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.ErrorMessage != "Session out of sync" {
		t.Fatalf("message = %q", s.ErrorMessage)
	}
	if err := c.Scratch(context.Background(), 0); err != nil {
		t.Fatalf("scratch: %v", err)
	}
	if _, _, scratches := api.calls(); scratches != 0 {
		t.Fatalf("scratch issued after desync")
	}
}

// stalePollRace issues a poll, lets a scratch complete while the poll is
// still in flight, then delivers the poll's older view.
func stalePollRace(t *testing.T, opts ...Option) Snapshot {
	t.Helper()
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	api := &fakeAPI{}
	api.setState(func(id string) (*scratchdto.StateResponse, error) {
		entered <- struct{}{}
		<-release
		return &scratchdto.StateResponse{Score: 0, TimeLeftSeconds: 200, Size: 40, ValuesHash: "hash-1"}, nil
	})
	api.setScratch(func(req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error) {
		return &scratchdto.ScratchResponse{Value: 50, RevealedIndex: []int{req.Index}, Score: 10}, nil
	})
	c := newTestController(t, api, opts...)
	startSession(t, c)

	done := make(chan struct{})
	go func() {
		c.PollState(context.Background())
		close(done)
	}()
	<-entered
	if err := c.Scratch(context.Background(), 3); err != nil {
		t.Fatalf("scratch: %v", err)
	}
	close(release)
	<-done
	return c.Snapshot()
}

func TestLastWriteWinsByArrival(t *testing.T) {
	s := stalePollRace(t)
	if s.Score != 0 || s.IsRevealed(3) {
		t.Fatalf("expected late poll to overwrite, got %+v", s)
	}
	if s.TimeLeftSeconds != 200 {
		t.Fatalf("time left = %d", s.TimeLeftSeconds)
	}
}

func TestOrderedApplyDiscardsStalePoll(t *testing.T) {
	s := stalePollRace(t, WithOrderedApply(true))
	if s.Score != 10 || !s.IsRevealed(3) || s.RevealedValues[3] != 50 {
		t.Fatalf("stale poll overwrote newer scratch: %+v", s)
	}
	if s.TimeLeftSeconds != 200 {
		t.Fatalf("time left = %d", s.TimeLeftSeconds)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	c.Stop()
	c.Stop()
	startSession(t, c)
	c.Stop()
	c.Stop()
	if c.Snapshot().Polling {
		t.Fatalf("still polling")
	}
}

func TestCloseRejectsStart(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	c.Close()
	if err := c.StartGame(context.Background(), scratchdto.StartRequest{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if starts, _, _ := api.calls(); starts != 0 {
		t.Fatalf("start calls = %d", starts)
	}
}

func TestReportInteraction(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	if err := c.ReportInteraction(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	startSession(t, c)
	if err := c.ReportInteraction(context.Background()); err != nil {
		t.Fatalf("report: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.reports) != 1 || api.reports[0] != "s-1" {
		t.Fatalf("reports = %v", api.reports)
	}
}

func TestSurfaceRevealedRefreshesFromServer(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	if err := c.SurfaceRevealed(context.Background(), 0.7); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if err := c.StartGame(context.Background(), scratchdto.StartRequest{Size: 0, DurationSeconds: 300}); err != nil {
		t.Fatalf("start: %v", err)
	}
	api.setState(func(id string) (*scratchdto.StateResponse, error) {
		return &scratchdto.StateResponse{Score: 0, Finished: true, ValuesHash: "hash-1"}, nil
	})
	if err := c.SurfaceRevealed(context.Background(), 0.7); err != nil {
		t.Fatalf("revealed: %v", err)
	}
	if _, states, _ := api.calls(); states != 1 {
		t.Fatalf("state calls = %d", states)
	}
	if s := c.Snapshot(); !s.Finished || s.Score != 0 || s.Polling {
		t.Fatalf("server state not applied: %+v", s)
	}
}

func TestSurfaceRevealedReportsServerError(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	startSession(t, c)
	if err := c.SurfaceRevealed(context.Background(), 1); err == nil {
		t.Fatalf("expected error when state is unavailable")
	}
	if s := c.Snapshot(); s.Finished {
		t.Fatalf("round finished without server confirmation")
	}
}

func TestNegativeSizeClampedToZero(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(t, api)
	if err := c.StartGame(context.Background(), scratchdto.StartRequest{Size: -3, DurationSeconds: 300}); err != nil {
		t.Fatalf("start: %v", err)
	}
	s := c.Snapshot()
	if s.Size != 0 || len(s.Boxes()) != 0 {
		t.Fatalf("size = %d boxes = %v", s.Size, s.Boxes())
	}

	api.setState(func(id string) (*scratchdto.StateResponse, error) {
		return &scratchdto.StateResponse{Size: -1, TimeLeftSeconds: 10, ValuesHash: "hash-1"}, nil
	})
	c.PollState(context.Background())
	if s := c.Snapshot(); s.Size != 0 {
		t.Fatalf("size after poll = %d", s.Size)
	}
	if got := (Snapshot{Size: -5}).Boxes(); len(got) != 0 {
		t.Fatalf("boxes for negative size = %v", got)
	}
}

type fakeMessages map[string]string

func (m fakeMessages) Text(key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func TestMessagesOverride(t *testing.T) {
	api := &fakeAPI{startErr: errors.New("down")}
	c := newTestController(t, api, WithMessages(fakeMessages{"game.start_failed": "시작 실패"}))
	_ = c.StartGame(context.Background(), scratchdto.StartRequest{})
	if got := c.Snapshot().ErrorMessage; got != "시작 실패" {
		t.Fatalf("message = %q", got)
	}
}
