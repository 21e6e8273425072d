package scratch

// Rect is a container's client-space bounding box in logical pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Container is the element hosting the surface. Measure reports false when
// the element is detached or has no layout yet.
type Container interface {
	Measure() (Rect, bool)
}

// stroke is the pointer state of one drag. It is attached to the input port
// for the lifetime of the drag only.
type stroke struct {
	engine   *Engine
	down     bool
	lastX    float64
	lastY    float64
	pointer  int
	listener int
	origin   Rect
}

// local converts client coordinates to surface coordinates clamped to the
// logical bounds. The container is re-measured per event; the last good
// origin is used when it cannot be.
func (s *stroke) local(ev PointerEvent) (float64, float64) {
	if r, ok := s.engine.container.Measure(); ok {
		s.origin = r
	}
	surface := s.engine.surface
	return clamp(ev.ClientX-s.origin.Left, 0, float64(surface.Width())),
		clamp(ev.ClientY-s.origin.Top, 0, float64(surface.Height()))
}

func (s *stroke) begin(ev PointerEvent) {
	x, y := s.local(ev)
	s.down = true
	s.pointer = ev.PointerID
	s.lastX, s.lastY = x, y
	s.engine.surface.EraseDisc(x, y, s.engine.opts.BrushRadius)
	s.listener = s.engine.port.AttachPointer(s)
	s.engine.afterStroke()
}

func (s *stroke) PointerMove(ev PointerEvent) {
	if !s.down || ev.PointerID != s.pointer {
		return
	}
	x, y := s.local(ev)
	s.engine.surface.EraseSegment(s.lastX, s.lastY, x, y, s.engine.opts.BrushRadius)
	s.lastX, s.lastY = x, y
	s.engine.afterStroke()
}

func (s *stroke) PointerUp(ev PointerEvent) {
	if ev.PointerID != s.pointer {
		return
	}
	s.engine.endStroke()
}

func (s *stroke) PointerCancel(ev PointerEvent) {
	if ev.PointerID != s.pointer {
		return
	}
	s.engine.endStroke()
}

// detach removes the listener; safe to call more than once.
func (s *stroke) detach() {
	s.down = false
	if s.listener != 0 {
		s.engine.port.DetachPointer(s.listener)
		s.listener = 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
