package session

// Snapshot is a copy of the controller state for rendering. Revealed is
// sorted ascending; ScratchingIndex is -1 when no scratch is in flight.
type Snapshot struct {
	SessionID       string
	Size            int
	ValuesHash      string
	Score           int
	TimeLeftSeconds int
	Finished        bool
	Desynced        bool
	Revealed        []int
	RevealedValues  map[int]int
	Starting        bool
	ScratchingIndex int
	ErrorMessage    string
	Polling         bool
}

// Boxes lists the cell indices of a grid session.
func (s Snapshot) Boxes() []int {
	out := make([]int, max(s.Size, 0))
	for i := range out {
		out[i] = i
	}
	return out
}

func (s Snapshot) IsRevealed(index int) bool {
	for _, i := range s.Revealed {
		if i == index {
			return true
		}
		if i > index {
			return false
		}
	}
	return false
}

// Scratching reports whether a scratch request is in flight.
func (s Snapshot) Scratching() bool { return s.ScratchingIndex >= 0 }
