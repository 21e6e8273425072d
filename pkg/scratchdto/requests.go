package scratchdto

import "time"

// StartRequest asks the server for a new session. Zero values let the server pick.
type StartRequest struct {
	Size            int `json:"size,omitempty"`
	DurationSeconds int `json:"duration_seconds,omitempty"`
}

type StartResponse struct {
	SessionID  string    `json:"session_id"`
	Size       int       `json:"size"`
	ValuesHash string    `json:"values_hash"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type StateResponse struct {
	Score           int    `json:"score"`
	TimeLeftSeconds int    `json:"time_left_seconds"`
	Finished        bool   `json:"finished"`
	Size            int    `json:"size"`
	ValuesHash      string `json:"values_hash"`
	Scratched       []int  `json:"scratched"`
}

type ScratchRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

type ScratchResponse struct {
	Value         int   `json:"value"`
	RevealedIndex []int `json:"revealed_index"`
	Score         int   `json:"score"`
}

// InteractionReport marks the first scratch of a round.
type InteractionReport struct {
	Timestamp time.Time `json:"timestamp"`
}

// HistoryItem is one finished round as reported by the play history endpoint.
type HistoryItem struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}
