package scratch

import "sync"

// PointerEvent is a raw pointer sample in client (window) coordinates.
type PointerEvent struct {
	ClientX   float64
	ClientY   float64
	PointerID int
}

// PointerListener receives window-level pointer events for an active stroke.
type PointerListener interface {
	PointerMove(ev PointerEvent)
	PointerUp(ev PointerEvent)
	PointerCancel(ev PointerEvent)
}

// InputPort owns every window-level subscription. Strokes need to keep
// observing the pointer after it leaves the surface, so listeners are global;
// each Attach call must be paired with the matching Detach.
type InputPort interface {
	AttachPointer(l PointerListener) int
	DetachPointer(id int)
	AttachResize(cb func()) int
	DetachResize(id int)
}

type pointerEntry struct {
	id       int
	listener PointerListener
}

type resizeEntry struct {
	id       int
	callback func()
}

// Port is an in-process InputPort. Front ends translate their native events
// into Dispatch* calls.
type Port struct {
	mu       sync.RWMutex
	nextID   int
	pointers []pointerEntry
	resizes  []resizeEntry
}

func NewPort() *Port {
	return &Port{}
}

func (p *Port) AttachPointer(l PointerListener) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.pointers = append(p.pointers, pointerEntry{id: p.nextID, listener: l})
	return p.nextID
}

func (p *Port) DetachPointer(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.pointers {
		if e.id == id {
			p.pointers = append(p.pointers[:i], p.pointers[i+1:]...)
			return
		}
	}
}

func (p *Port) AttachResize(cb func()) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.resizes = append(p.resizes, resizeEntry{id: p.nextID, callback: cb})
	return p.nextID
}

func (p *Port) DetachResize(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.resizes {
		if e.id == id {
			p.resizes = append(p.resizes[:i], p.resizes[i+1:]...)
			return
		}
	}
}

// PointerListeners reports how many pointer listeners are attached.
func (p *Port) PointerListeners() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pointers)
}

// ResizeListeners reports how many resize listeners are attached.
func (p *Port) ResizeListeners() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.resizes)
}

func (p *Port) DispatchMove(ev PointerEvent) {
	for _, e := range p.snapshotPointers() {
		e.listener.PointerMove(ev)
	}
}

func (p *Port) DispatchUp(ev PointerEvent) {
	for _, e := range p.snapshotPointers() {
		e.listener.PointerUp(ev)
	}
}

func (p *Port) DispatchCancel(ev PointerEvent) {
	for _, e := range p.snapshotPointers() {
		e.listener.PointerCancel(ev)
	}
}

func (p *Port) DispatchResize() {
	p.mu.RLock()
	callbacks := make([]resizeEntry, len(p.resizes))
	copy(callbacks, p.resizes)
	p.mu.RUnlock()
	for _, e := range callbacks {
		if e.callback != nil {
			e.callback()
		}
	}
}

// snapshotPointers copies the listener list so callbacks may detach themselves.
func (p *Port) snapshotPointers() []pointerEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]pointerEntry, len(p.pointers))
	copy(out, p.pointers)
	return out
}
