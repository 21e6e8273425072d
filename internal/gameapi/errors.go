package gameapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

// APIError is a non-2xx response from the game API.
type APIError struct {
	Status  int
	Body    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("game api error: status=%d message=%s", e.Status, e.Message)
	}
	return fmt.Sprintf("game api error: status=%d body=%s", e.Status, e.Body)
}

// Unwrap maps the statuses the session layer classifies onto shared sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusConflict:
		return scratchdto.ErrAlreadyScratched
	case http.StatusGone:
		return scratchdto.ErrSessionGone
	case http.StatusUnauthorized:
		return scratchdto.ErrUnauthorized
	default:
		return nil
	}
}

func (e *APIError) IsConflict() bool { return e.Status == http.StatusConflict }

// UserMessage returns the server supplied message, if any.
func (e *APIError) UserMessage() string { return e.Message }

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: truncate(string(body), 512)}
	var payload scratchdto.DomainError
	if json.Unmarshal(body, &payload) == nil {
		e.Message = strings.TrimSpace(payload.Message)
	}
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
