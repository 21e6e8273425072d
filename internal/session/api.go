package session

import (
	"context"
	"errors"
	"time"

	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

// API is the authoritative game server.
type API interface {
	Start(ctx context.Context, req scratchdto.StartRequest) (*scratchdto.StartResponse, error)
	State(ctx context.Context, sessionID string) (*scratchdto.StateResponse, error)
	Scratch(ctx context.Context, req scratchdto.ScratchRequest) (*scratchdto.ScratchResponse, error)
}

// InteractionReporter is implemented by APIs that accept a first-interaction
// timestamp per round.
type InteractionReporter interface {
	ReportInteraction(ctx context.Context, sessionID string, at time.Time) error
}

// ActiveStore remembers the running session of an owner so a restarted
// client can resume it, plus the values revealed so far.
type ActiveStore interface {
	SaveActive(ctx context.Context, owner string, s scratchdto.ActiveSession, ttl time.Duration) error
	LoadActive(ctx context.Context, owner string) (*scratchdto.ActiveSession, error)
	ClearActive(ctx context.Context, owner string) error
	RememberValue(ctx context.Context, sessionID string, index, value int, ttl time.Duration) error
	Values(ctx context.Context, sessionID string) (map[int]int, error)
}

// Messages resolves user-visible text by key.
type Messages interface {
	Text(key, fallback string) string
}

var (
	ErrBusy            = errors.New("session: start already in flight")
	ErrClosed          = errors.New("session: controller closed")
	ErrIndexOutOfRange = errors.New("session: index out of range")
	ErrNoActiveSession = errors.New("session: no active session")

	ErrAlreadyScratched = scratchdto.ErrAlreadyScratched
	ErrSessionExpired   = scratchdto.ErrSessionGone
)

const (
	msgStartFailed      = "game.start_failed"
	msgScratchFailed    = "game.scratch_failed"
	msgAlreadyScratched = "game.already_scratched"
	msgSessionExpired   = "game.session_expired"
	msgDesync           = "game.desync"
)

var fallbackMessages = map[string]string{
	msgStartFailed:      "Failed to start game",
	msgScratchFailed:    "Scratch failed",
	msgAlreadyScratched: "Already scratched",
	msgSessionExpired:   "Session expired",
	msgDesync:           "Session out of sync",
}
