package domain

import "time"

// RoundResult is one finished scratch round as archived by the client.
type RoundResult struct {
	ID        int64
	Owner     string
	SessionID string
	Score     int
	Revealed  []int
	Kind      string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
}
