package protocol

import "encoding/json"

// --- Shared structures ---

// MemberInfo session member
type MemberInfo struct {
	PlayerID PlayerID `json:"player_id"`
	Ready    bool     `json:"ready"`
}

// ActionInfo accepted action
type ActionInfo struct {
	PlayerID PlayerID        `json:"player_id"`
	MoveData json.RawMessage `json:"move_data"`
	Sequence int             `json:"sequence"`
}

// SessionInfo full session view
type SessionInfo struct {
	SessionID  string          `json:"session_id"`
	State      string          `json:"state"`
	Host       PlayerID        `json:"host"`
	MapLayout  json.RawMessage `json:"map_layout"`
	Clients    []MemberInfo    `json:"clients"`
	ActionList []ActionInfo    `json:"action_list"`
}

// --- Server → client payloads ---

// SessionStatePayload session snapshot (session_state / session_start)
type SessionStatePayload struct {
	MessageType OutboundType `json:"message_type"`
	SessionInfo
}

// NewPlayerActionPayload relayed action
type NewPlayerActionPayload struct {
	MessageType OutboundType    `json:"message_type"`
	SessionID   string          `json:"session_id"`
	PlayerID    PlayerID        `json:"player_id"`
	MoveData    json.RawMessage `json:"move_data"`
	Sequence    int             `json:"sequence"`
}

// PlayerJoinedPayload join notice
type PlayerJoinedPayload struct {
	MessageType OutboundType `json:"message_type"`
	SessionID   string       `json:"session_id"`
	PlayerID    PlayerID     `json:"player_id"`
	Text        string       `json:"text"`
}

// PlayerLeftPayload leave / disconnect notice
type PlayerLeftPayload struct {
	MessageType OutboundType `json:"message_type"`
	SessionID   string       `json:"session_id"`
	PlayerID    PlayerID     `json:"player_id"`
	Text        string       `json:"text"`
}

// SessionStartedPayload start notice
type SessionStartedPayload struct {
	MessageType OutboundType `json:"message_type"`
	SessionID   string       `json:"session_id"`
	Text        string       `json:"text"`
}

// SessionLeftPayload leave confirmation
type SessionLeftPayload struct {
	MessageType OutboundType `json:"message_type"`
	SessionID   string       `json:"session_id"`
	PlayerID    PlayerID     `json:"player_id"`
	Deleted     bool         `json:"deleted"` // session was removed because it became empty
	Text        string       `json:"text"`
}

// PongPayload heartbeat reply
type PongPayload struct {
	MessageType     OutboundType `json:"message_type"`
	ClientTimestamp int64        `json:"client_timestamp"`
	ServerTimestamp int64        `json:"server_timestamp"` // ms
}

// HeartbeatPayload periodic heartbeat
type HeartbeatPayload struct {
	MessageType OutboundType `json:"message_type"`
	Text        string       `json:"text"`
	ServerTime  int64        `json:"server_time"` // ms
}

// SummaryPayload periodic client/session counts
type SummaryPayload struct {
	MessageType OutboundType `json:"message_type"`
	Clients     int          `json:"clients"`
	Sessions    int          `json:"sessions"`
	Text        string       `json:"text"`
}

// StatusPayload periodic full status dump
type StatusPayload struct {
	MessageType OutboundType  `json:"message_type"`
	Sessions    []SessionInfo `json:"sessions"`
	GeneratedAt int64         `json:"generated_at"` // ms
}

// ErrorPayload error notice
type ErrorPayload struct {
	MessageType OutboundType `json:"message_type"`
	Code        int          `json:"code"`
	Message     string       `json:"message"`
}

// --- Constructors ---

// NewSessionState builds a session snapshot frame of the given kind
func NewSessionState(kind OutboundType, info SessionInfo) SessionStatePayload {
	return SessionStatePayload{MessageType: kind, SessionInfo: info}
}

// NewError builds an error notice with the default text for the code
func NewError(code int) ErrorPayload {
	return ErrorPayload{MessageType: OutError, Code: code, Message: ErrorMessages[code]}
}

// NewErrorWithText builds an error notice with a custom text
func NewErrorWithText(code int, text string) ErrorPayload {
	return ErrorPayload{MessageType: OutError, Code: code, Message: text}
}
