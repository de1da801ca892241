package protocol

import (
	"encoding/json"
)

// Message inbound client request, one JSON object per frame
type Message struct {
	Type      MessageType     `json:"type"`
	PlayerID  PlayerID        `json:"player_id"`
	SessionID string          `json:"session_id,omitempty"`
	MapLayout json.RawMessage `json:"map_layout,omitempty"` // opaque, only for request_create_session
	MoveData  json.RawMessage `json:"move_data,omitempty"`  // opaque, only for player_action
	Timestamp int64           `json:"timestamp,omitempty"`  // client clock (ms), only for ping
}

// MessageType inbound message type
type MessageType string

// Client → server message types
const (
	// Session lifecycle
	MsgCreateSession MessageType = "request_create_session"
	MsgStartSession  MessageType = "request_start_session"
	MsgJoinSession   MessageType = "request_join_session"
	MsgLeaveSession  MessageType = "request_leave_session"

	// Gameplay
	MsgPlayerAction MessageType = "player_action"

	// Connection
	MsgPing MessageType = "ping"
)

// OutboundType message_type discriminator of server → client frames
type OutboundType string

// Server → client message types
const (
	// Session snapshots
	OutSessionState OutboundType = "session_state"
	OutSessionStart OutboundType = "session_start"

	// Relayed gameplay
	OutNewPlayerAction OutboundType = "new_player_action"

	// Notices
	OutPlayerJoined   OutboundType = "player_joined"
	OutPlayerLeft     OutboundType = "player_left"
	OutSessionStarted OutboundType = "session_started"
	OutSessionLeft    OutboundType = "session_left"
	OutPong           OutboundType = "pong"

	// Periodic announcements
	OutHeartbeat OutboundType = "heartbeat"
	OutSummary   OutboundType = "summary"
	OutStatus    OutboundType = "status"

	// Errors
	OutError OutboundType = "error"
)

// NeedsSession reports whether the message type must carry a session_id
func (t MessageType) NeedsSession() bool {
	switch t {
	case MsgStartSession, MsgJoinSession, MsgLeaveSession, MsgPlayerAction:
		return true
	}
	return false
}
