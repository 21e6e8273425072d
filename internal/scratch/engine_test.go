package scratch

import (
	"errors"
	"testing"
)

type fakeContainer struct {
	rect Rect
	ok   bool
}

func (c *fakeContainer) Measure() (Rect, bool) {
	return c.rect, c.ok
}

type recorder struct {
	progress     []float64
	interactions int
	reveals      int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnProgress:         func(p float64) { r.progress = append(r.progress, p) },
		OnInteractionStart: func() { r.interactions++ },
		OnRevealed:         func(float64) { r.reveals++ },
	}
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *Port, *fakeContainer, *recorder) {
	t.Helper()
	container := &fakeContainer{rect: Rect{Left: 10, Top: 20, Width: 280, Height: 160}, ok: true}
	port := NewPort()
	rec := &recorder{}
	e := NewEngine(container, port, opts, rec.callbacks(), nil)
	t.Cleanup(e.Cleanup)
	return e, port, container, rec
}

func at(x, y float64) PointerEvent {
	// client coordinates for a point on the test container
	return PointerEvent{ClientX: x + 10, ClientY: y + 20, PointerID: 1}
}

func TestEngineInitialize(t *testing.T) {
	e, port, _, _ := newTestEngine(t, DefaultOptions())
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if e.State() != StateReady {
		t.Fatalf("state = %v", e.State())
	}
	if port.ResizeListeners() != 1 {
		t.Fatalf("resize listeners = %d", port.ResizeListeners())
	}
	if got := e.CalculateProgress(); got != 0 {
		t.Fatalf("fresh progress = %v", got)
	}
}

func TestEngineAppliesMinimumSize(t *testing.T) {
	e, _, container, _ := newTestEngine(t, DefaultOptions())
	container.rect.Width, container.rect.Height = 100, 50
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if e.Surface().Width() != 280 || e.Surface().Height() != 160 {
		t.Fatalf("size %dx%d", e.Surface().Width(), e.Surface().Height())
	}
}

func TestEngineProgressZeroWhenUninitialized(t *testing.T) {
	e, _, _, _ := newTestEngine(t, DefaultOptions())
	if got := e.CalculateProgress(); got != 0 {
		t.Fatalf("progress = %v", got)
	}
	if err := e.StartScratching(at(5, 5)); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestEngineClampsPointerToBounds(t *testing.T) {
	e, port, _, _ := newTestEngine(t, DefaultOptions())
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(PointerEvent{ClientX: -500, ClientY: -500, PointerID: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if a := e.AlphaAt(0, 0); a != 0 {
		t.Fatalf("corner alpha %d", a)
	}
	port.DispatchMove(PointerEvent{ClientX: 5000, ClientY: 5000, PointerID: 1})
	if a := e.AlphaAt(279, 159); a != 0 {
		t.Fatalf("far corner alpha %d", a)
	}
	if a := e.AlphaAt(140, 20); a != 255 {
		t.Fatalf("untouched alpha %d", a)
	}
	if !e.Cleared(0, 0) || e.Cleared(140, 20) {
		t.Fatalf("cleared disagrees with alpha: corner=%v untouched=%v", e.Cleared(0, 0), e.Cleared(140, 20))
	}
}

func TestEngineSamplesEveryKStrokes(t *testing.T) {
	opts := DefaultOptions()
	opts.StrokesPerCheck = 3
	e, port, _, rec := newTestEngine(t, opts)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(at(20, 20)); err != nil {
		t.Fatalf("start: %v", err)
	}
	port.DispatchMove(at(30, 20))
	if len(rec.progress) != 0 {
		t.Fatalf("sampled too early")
	}
	port.DispatchMove(at(40, 20))
	if len(rec.progress) != 1 {
		t.Fatalf("progress calls = %d", len(rec.progress))
	}
	port.DispatchMove(at(50, 20))
	port.DispatchMove(at(60, 20))
	if len(rec.progress) != 1 {
		t.Fatalf("progress calls = %d", len(rec.progress))
	}
	port.DispatchMove(at(70, 20))
	if len(rec.progress) != 2 {
		t.Fatalf("progress calls = %d", len(rec.progress))
	}
	if rec.progress[1] < rec.progress[0] {
		t.Fatalf("progress decreased: %v", rec.progress)
	}
}

func TestEngineInteractionSignalOncePerRound(t *testing.T) {
	e, port, _, rec := newTestEngine(t, DefaultOptions())
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := e.StartScratching(at(50, 50)); err != nil {
			t.Fatalf("start: %v", err)
		}
		port.DispatchUp(at(50, 50))
	}
	if rec.interactions != 1 {
		t.Fatalf("interactions = %d", rec.interactions)
	}

	e.ResetScratchSurface()
	if err := e.StartScratching(at(50, 50)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if rec.interactions != 2 {
		t.Fatalf("interactions after reset = %d", rec.interactions)
	}
}

func TestEngineInteractionSignalPrecedesErase(t *testing.T) {
	container := &fakeContainer{rect: Rect{Width: 280, Height: 160}, ok: true}
	port := NewPort()
	var e *Engine
	var alpha uint8
	e = NewEngine(container, port, DefaultOptions(), Callbacks{
		OnInteractionStart: func() { alpha = e.AlphaAt(50, 50) },
	}, nil)
	t.Cleanup(e.Cleanup)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(PointerEvent{ClientX: 50, ClientY: 50}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if alpha != 255 {
		t.Fatalf("surface erased before interaction signal, alpha %d", alpha)
	}
	if e.AlphaAt(50, 50) != 0 {
		t.Fatalf("stroke did not erase")
	}
}

func sweep(port *Port) {
	for y := 10.0; y < 160; y += 30 {
		port.DispatchMove(at(0, y))
		port.DispatchMove(at(280, y))
	}
}

func TestEngineRevealFiresOnce(t *testing.T) {
	opts := DefaultOptions()
	opts.StrokesPerCheck = 1
	e, port, _, rec := newTestEngine(t, opts)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(at(0, 10)); err != nil {
		t.Fatalf("start: %v", err)
	}
	sweep(port)
	sweep(port)
	if rec.reveals != 1 {
		t.Fatalf("reveals = %d", rec.reveals)
	}
	if e.Progress() < opts.RevealThreshold {
		t.Fatalf("progress %v below threshold", e.Progress())
	}
	port.DispatchUp(at(0, 0))
	if e.State() != StateRevealed {
		t.Fatalf("state = %v", e.State())
	}
	if err := e.StartScratching(at(5, 5)); !errors.Is(err, ErrRevealed) {
		t.Fatalf("expected ErrRevealed, got %v", err)
	}
}

func TestEngineProgressIsMonotonic(t *testing.T) {
	opts := DefaultOptions()
	opts.StrokesPerCheck = 1
	e, port, _, rec := newTestEngine(t, opts)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(at(0, 0)); err != nil {
		t.Fatalf("start: %v", err)
	}
	sweep(port)
	for i := 1; i < len(rec.progress); i++ {
		if rec.progress[i] < rec.progress[i-1] {
			t.Fatalf("progress decreased at %d: %v", i, rec.progress)
		}
	}
}

func TestEngineCleanupDetachesEverything(t *testing.T) {
	opts := DefaultOptions()
	opts.StrokesPerCheck = 1
	e, port, _, rec := newTestEngine(t, opts)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(at(20, 20)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if port.PointerListeners() != 1 {
		t.Fatalf("pointer listeners = %d", port.PointerListeners())
	}
	e.Cleanup()
	if port.PointerListeners() != 0 || port.ResizeListeners() != 0 {
		t.Fatalf("leaked listeners: pointer=%d resize=%d", port.PointerListeners(), port.ResizeListeners())
	}
	before := len(rec.progress)
	port.DispatchMove(at(100, 100))
	port.DispatchResize()
	if len(rec.progress) != before {
		t.Fatalf("progress fired after cleanup")
	}
	if e.State() != StateUninitialized {
		t.Fatalf("state = %v", e.State())
	}
}

func TestEngineStrokeListenersDoNotLeak(t *testing.T) {
	e, port, _, _ := newTestEngine(t, DefaultOptions())
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := e.StartScratching(at(20, 20)); err != nil {
			t.Fatalf("start: %v", err)
		}
		port.DispatchMove(at(40, 40))
		if i%2 == 0 {
			port.DispatchUp(at(40, 40))
		} else {
			port.DispatchCancel(at(40, 40))
		}
		if port.PointerListeners() != 0 {
			t.Fatalf("stroke %d leaked %d listeners", i, port.PointerListeners())
		}
	}
	if e.State() != StateReady {
		t.Fatalf("state = %v", e.State())
	}
}

func TestEngineResizeRepaintsWithNewScale(t *testing.T) {
	e, port, container, _ := newTestEngine(t, DefaultOptions())
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	e.ClearScratchSurface()
	if got := e.CalculateProgress(); got != 1 {
		t.Fatalf("cleared progress = %v", got)
	}

	container.rect.Width, container.rect.Height = 300, 200
	e.SetDevicePixelRatio(2)
	port.DispatchResize()

	b := e.Surface().Image().Bounds()
	if b.Dx() != 600 || b.Dy() != 400 {
		t.Fatalf("physical size %dx%d", b.Dx(), b.Dy())
	}
	if got := e.CalculateProgress(); got != 0 {
		t.Fatalf("repainted progress = %v", got)
	}

	if err := e.StartScratching(at(150, 100)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if a := e.AlphaAt(150, 100); a != 0 {
		t.Fatalf("erase after resize missed, alpha %d", a)
	}
	if a := e.AlphaAt(150, 150); a != 255 {
		t.Fatalf("erase after resize too large, alpha %d", a)
	}
}

func TestEngineInitFailureRetriesOnResize(t *testing.T) {
	e, port, container, _ := newTestEngine(t, DefaultOptions())
	container.ok = false
	if err := e.Initialize(); !errors.Is(err, ErrContainerUnavailable) {
		t.Fatalf("expected ErrContainerUnavailable, got %v", err)
	}
	if e.State() != StateUninitialized {
		t.Fatalf("state = %v", e.State())
	}
	if port.ResizeListeners() != 1 {
		t.Fatalf("resize listeners = %d", port.ResizeListeners())
	}

	container.ok = true
	port.DispatchResize()
	if e.State() != StateReady {
		t.Fatalf("state after resize = %v", e.State())
	}
	if port.ResizeListeners() != 1 {
		t.Fatalf("resize listeners = %d", port.ResizeListeners())
	}
}

func TestEngineRevealedResizeStaysClear(t *testing.T) {
	opts := DefaultOptions()
	opts.StrokesPerCheck = 1
	e, port, _, _ := newTestEngine(t, opts)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(at(0, 10)); err != nil {
		t.Fatalf("start: %v", err)
	}
	sweep(port)
	port.DispatchUp(at(0, 0))
	if !e.Revealed() {
		t.Fatalf("expected reveal")
	}
	port.DispatchResize()
	if got := e.CalculateProgress(); got != 1 {
		t.Fatalf("progress after resize = %v", got)
	}
}

func TestEngineResetStartsNewRound(t *testing.T) {
	opts := DefaultOptions()
	opts.StrokesPerCheck = 1
	e, port, _, rec := newTestEngine(t, opts)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.StartScratching(at(0, 10)); err != nil {
		t.Fatalf("start: %v", err)
	}
	sweep(port)
	e.ResetScratchSurface()
	if e.State() != StateReady || e.Revealed() || e.Progress() != 0 {
		t.Fatalf("reset left state=%v revealed=%v progress=%v", e.State(), e.Revealed(), e.Progress())
	}
	if port.PointerListeners() != 0 {
		t.Fatalf("reset leaked listeners")
	}
	if err := e.StartScratching(at(0, 10)); err != nil {
		t.Fatalf("start: %v", err)
	}
	sweep(port)
	if rec.reveals != 2 {
		t.Fatalf("reveals = %d", rec.reveals)
	}
}
