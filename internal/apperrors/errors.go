package apperrors

import (
	"github.com/palemoky/session-relay/internal/protocol"
)

// RelayError protocol-level error carrying a wire error code
type RelayError struct {
	Code    int
	Message string

	base *RelayError
}

func (e *RelayError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the sentinel a detailed error was derived from
func (e *RelayError) Unwrap() error {
	if e.base == nil {
		return nil
	}
	return e.base
}

// WithText derives an error with the same code and a more specific message
func (e *RelayError) WithText(text string) *RelayError {
	return &RelayError{Code: e.Code, Message: text, base: e}
}

// Predefined errors
var (
	ErrInvalidInput       = &RelayError{Code: protocol.ErrCodeInvalidMsg, Message: "Invalid input"}
	ErrMissingIdentity    = &RelayError{Code: protocol.ErrCodeMissingIdentity, Message: "Invalid input: missing player_id"}
	ErrMissingSessionID   = &RelayError{Code: protocol.ErrCodeInvalidMsg, Message: "Invalid input: missing session_id"}
	ErrUnknownMessageType = &RelayError{Code: protocol.ErrCodeUnknownType, Message: "Unknown message type"}
	ErrRateLimited        = &RelayError{Code: protocol.ErrCodeRateLimit, Message: "Too many messages, slow down"}
	ErrSessionNotFound    = &RelayError{Code: protocol.ErrCodeSessionNotFound, Message: "Session does not exist"}
	ErrAlreadyMember      = &RelayError{Code: protocol.ErrCodeAlreadyMember, Message: "Player is already in session"}
	ErrNotMember          = &RelayError{Code: protocol.ErrCodeNotMember, Message: "Player is not in session"}
	ErrRetryableConflict  = &RelayError{Code: protocol.ErrCodeSessionConflict, Message: "Session id collision"}
	ErrUnknownRecipient   = &RelayError{Code: protocol.ErrCodeUnknownPlayer, Message: "Player has no live connection"}
	ErrServerShutdown     = &RelayError{Code: protocol.ErrCodeServerShutdown, Message: "Server is shutting down"}
)
