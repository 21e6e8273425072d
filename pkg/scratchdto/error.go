package scratchdto

import "errors"

// Transport-independent outcomes the server signals with dedicated statuses.
var (
	ErrAlreadyScratched = errors.New("cell already scratched")
	ErrSessionGone      = errors.New("session expired")
	ErrUnauthorized     = errors.New("unauthorized")
)

// DomainError is the JSON error body returned by the game API.
type DomainError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "scratch service error"
}
