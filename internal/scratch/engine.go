package scratch

import (
	"errors"

	"go.uber.org/zap"
)

var (
	ErrNotReady = errors.New("scratch engine: not initialized")
	ErrRevealed = errors.New("scratch engine: already revealed")
)

// State is the reveal engine lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateScratching
	StateRevealed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateScratching:
		return "scratching"
	case StateRevealed:
		return "revealed"
	default:
		return "uninitialized"
	}
}

type Options struct {
	BrushRadius      float64
	RevealThreshold  float64
	SampleStep       int
	StrokesPerCheck  int
	MinWidth         int
	MinHeight        int
	DevicePixelRatio float64
}

func DefaultOptions() Options {
	return Options{
		BrushRadius:      26,
		RevealThreshold:  0.62,
		SampleStep:       8,
		StrokesPerCheck:  12,
		MinWidth:         280,
		MinHeight:        160,
		DevicePixelRatio: 1,
	}
}

// Callbacks are invoked synchronously on the goroutine driving the engine.
type Callbacks struct {
	OnProgress         func(progress float64)
	OnInteractionStart func()
	OnRevealed         func(progress float64)
}

// Engine composes the surface, stroke capture and sampler into the
// scratch lifecycle. It must be driven from a single goroutine.
type Engine struct {
	container Container
	port      InputPort
	opts      Options
	cb        Callbacks
	logger    *zap.Logger

	surface  *Surface
	sampler  Sampler
	stroke   *stroke
	state    State
	progress float64
	started  bool
	revealed bool
	resizeID int
}

func NewEngine(container Container, port InputPort, opts Options, cb Callbacks, logger *zap.Logger) *Engine {
	def := DefaultOptions()
	if opts.BrushRadius <= 0 {
		opts.BrushRadius = def.BrushRadius
	}
	if opts.RevealThreshold <= 0 || opts.RevealThreshold > 1 {
		opts.RevealThreshold = def.RevealThreshold
	}
	if opts.SampleStep <= 0 {
		opts.SampleStep = def.SampleStep
	}
	if opts.StrokesPerCheck <= 0 {
		opts.StrokesPerCheck = def.StrokesPerCheck
	}
	if opts.DevicePixelRatio <= 0 {
		opts.DevicePixelRatio = def.DevicePixelRatio
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		container: container,
		port:      port,
		opts:      opts,
		cb:        cb,
		logger:    logger,
		sampler:   Sampler{Step: opts.SampleStep, Every: opts.StrokesPerCheck},
	}
}

// Initialize sizes and paints the surface and starts following resizes.
// On failure the engine stays uninitialized, but the resize listener is
// still attached so the next resize retries.
func (e *Engine) Initialize() error {
	if e.resizeID == 0 {
		e.resizeID = e.port.AttachResize(e.handleResize)
	}
	if err := e.initSurface(); err != nil {
		e.logger.Warn("surface_init_failed", zap.Error(err))
		return err
	}
	if e.state == StateUninitialized {
		e.state = StateReady
	}
	return nil
}

func (e *Engine) initSurface() error {
	if e.container == nil {
		return ErrContainerUnavailable
	}
	r, ok := e.container.Measure()
	if !ok {
		return ErrContainerUnavailable
	}
	w := int(r.Width)
	h := int(r.Height)
	if w < e.opts.MinWidth {
		w = e.opts.MinWidth
	}
	if h < e.opts.MinHeight {
		h = e.opts.MinHeight
	}
	if e.surface == nil {
		e.surface = &Surface{}
	}
	return e.surface.Init(w, h, e.opts.DevicePixelRatio)
}

func (e *Engine) handleResize() {
	if err := e.Initialize(); err != nil {
		return
	}
	if e.revealed {
		e.surface.Clear()
	}
}

// SetDevicePixelRatio changes the ratio used by the next Initialize.
func (e *Engine) SetDevicePixelRatio(ratio float64) {
	e.opts.DevicePixelRatio = ratio
}

// StartScratching begins a stroke at the event position. The first stroke of
// a round raises OnInteractionStart before anything is erased.
func (e *Engine) StartScratching(ev PointerEvent) error {
	switch e.state {
	case StateUninitialized:
		return ErrNotReady
	case StateRevealed:
		return ErrRevealed
	case StateScratching:
		return nil
	}
	if !e.started {
		e.started = true
		if e.cb.OnInteractionStart != nil {
			e.cb.OnInteractionStart()
		}
	}
	e.state = StateScratching
	e.stroke = &stroke{engine: e}
	e.stroke.begin(ev)
	return nil
}

func (e *Engine) afterStroke() {
	if !e.sampler.Tick() {
		return
	}
	p := e.sampler.Measure(e.surface)
	if p > e.progress {
		e.progress = p
	}
	if e.cb.OnProgress != nil {
		e.cb.OnProgress(p)
	}
	if !e.revealed && p >= e.opts.RevealThreshold {
		e.revealed = true
		e.logger.Debug("surface_revealed", zap.Float64("progress", p))
		if e.cb.OnRevealed != nil {
			e.cb.OnRevealed(p)
		}
	}
}

func (e *Engine) endStroke() {
	if e.stroke != nil {
		e.stroke.detach()
		e.stroke = nil
	}
	switch {
	case e.revealed:
		e.state = StateRevealed
	case e.state == StateScratching:
		e.state = StateReady
	}
}

// ResetScratchSurface repaints the foil and starts a new round.
func (e *Engine) ResetScratchSurface() {
	if e.stroke != nil {
		e.stroke.detach()
		e.stroke = nil
	}
	if !e.surface.Ready() {
		return
	}
	e.surface.Repaint()
	e.sampler.Reset()
	e.progress = 0
	e.started = false
	e.revealed = false
	e.state = StateReady
}

// ClearScratchSurface removes the whole foil without ending the round.
func (e *Engine) ClearScratchSurface() {
	e.surface.Clear()
}

// CalculateProgress samples the mask now, ignoring the stroke cadence.
func (e *Engine) CalculateProgress() float64 {
	if e.state == StateUninitialized || !e.surface.Ready() {
		return 0
	}
	return e.surface.Sample(e.opts.SampleStep)
}

// Cleanup detaches every listener the engine owns and releases the mask.
func (e *Engine) Cleanup() {
	if e.stroke != nil {
		e.stroke.detach()
		e.stroke = nil
	}
	if e.resizeID != 0 {
		e.port.DetachResize(e.resizeID)
		e.resizeID = 0
	}
	e.surface = nil
	e.sampler.Reset()
	e.progress = 0
	e.started = false
	e.revealed = false
	e.state = StateUninitialized
}

func (e *Engine) State() State      { return e.state }
func (e *Engine) Progress() float64 { return e.progress }
func (e *Engine) Revealed() bool    { return e.revealed }
func (e *Engine) Surface() *Surface { return e.surface }

// AlphaAt returns the foil alpha at a logical point, 0 when uninitialized.
func (e *Engine) AlphaAt(x, y float64) uint8 {
	return e.surface.AlphaAt(x, y)
}

// Cleared reports whether the foil at a logical point counts as scratched,
// using the same threshold as progress sampling.
func (e *Engine) Cleared(x, y float64) bool {
	return e.AlphaAt(x, y) < clearedAlpha
}
