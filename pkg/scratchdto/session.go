package scratchdto

import "time"

// ActiveSession is the client-side pointer to a running session, kept so a
// restarted client can resume instead of starting over.
type ActiveSession struct {
	SessionID  string    `json:"session_id"`
	Size       int       `json:"size"`
	ValuesHash string    `json:"values_hash"`
	StartedAt  time.Time `json:"started_at"`
}
