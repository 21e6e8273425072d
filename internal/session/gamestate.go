package session

import (
	"sync"

	"github.com/park285/Cheese-scratch-card/internal/prize"
)

// GameState is the round-level view model a front end renders next to the
// session snapshot.
type GameState struct {
	mu       sync.Mutex
	started  bool
	finished bool
	busy     bool
	progress float64
	playLog  []prize.LogEntry
}

type GameView struct {
	Started  bool
	Finished bool
	Busy     bool
	Progress float64
	PlayLog  []prize.LogEntry
}

func (g *GameState) SetStarted(v bool) {
	g.mu.Lock()
	g.started = v
	g.mu.Unlock()
}

func (g *GameState) SetFinished(v bool) {
	g.mu.Lock()
	g.finished = v
	g.mu.Unlock()
}

func (g *GameState) SetBusy(v bool) {
	g.mu.Lock()
	g.busy = v
	g.mu.Unlock()
}

// SetProgress keeps the highest progress seen this round.
func (g *GameState) SetProgress(p float64) {
	g.mu.Lock()
	if p > g.progress {
		g.progress = p
	}
	g.mu.Unlock()
}

// AddToPlayLog prepends an entry.
func (g *GameState) AddToPlayLog(e prize.LogEntry) {
	g.mu.Lock()
	g.playLog = append([]prize.LogEntry{e}, g.playLog...)
	g.mu.Unlock()
}

func (g *GameState) SetPlayLog(entries []prize.LogEntry) {
	g.mu.Lock()
	g.playLog = append([]prize.LogEntry(nil), entries...)
	g.mu.Unlock()
}

// Reset clears the round flags. The play log and busy flag survive.
func (g *GameState) Reset() {
	g.mu.Lock()
	g.started = false
	g.finished = false
	g.progress = 0
	g.mu.Unlock()
}

func (g *GameState) View() GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GameView{
		Started:  g.started,
		Finished: g.finished,
		Busy:     g.busy,
		Progress: g.progress,
		PlayLog:  append([]prize.LogEntry(nil), g.playLog...),
	}
}
