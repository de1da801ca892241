package protocol

// Error codes
const (
	ErrCodeUnknown         = 1000
	ErrCodeInvalidMsg      = 1001
	ErrCodeRateLimit       = 1002 // per-connection message rate limit
	ErrCodeMissingIdentity = 1003
	ErrCodeUnknownType     = 1004
	ErrCodeSessionNotFound = 2001
	ErrCodeAlreadyMember   = 2002
	ErrCodeNotMember       = 2003
	ErrCodeSessionConflict = 2004 // session id collision, safe to retry
	ErrCodeUnknownPlayer   = 2005
	ErrCodeServerShutdown  = 5003
)

// ErrorMessages default text per error code
var ErrorMessages = map[int]string{
	ErrCodeUnknown:         "Unknown error",
	ErrCodeInvalidMsg:      "Invalid input",
	ErrCodeRateLimit:       "Too many messages",
	ErrCodeMissingIdentity: "Missing player_id",
	ErrCodeUnknownType:     "Unknown message type",
	ErrCodeSessionNotFound: "Session does not exist",
	ErrCodeAlreadyMember:   "Player is already in session",
	ErrCodeNotMember:       "Player is not in session",
	ErrCodeSessionConflict: "Session id collision, please retry",
	ErrCodeUnknownPlayer:   "Player has no live connection",
	ErrCodeServerShutdown:  "Server is shutting down",
}
