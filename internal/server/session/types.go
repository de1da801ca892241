package session

import (
	"encoding/json"
	"time"

	"github.com/palemoky/session-relay/internal/protocol"
)

// State session lifecycle state
type State string

const (
	StateWaiting State = "waiting"
	StateRunning State = "running"
)

// Member session member
type Member struct {
	PlayerID protocol.PlayerID
	Ready    bool
}

// ActionRecord accepted action; Sequence is its position in the log
type ActionRecord struct {
	PlayerID protocol.PlayerID
	MoveData json.RawMessage
	Sequence int
}

// Session named group of players sharing one game instance
type Session struct {
	ID         string
	State      State
	Host       protocol.PlayerID // creator, not required to stay a member
	MapLayout  json.RawMessage   // opaque, immutable
	Clients    []Member
	ActionList []ActionRecord
	CreatedAt  time.Time
}

// Removal outcome of removing one player from one session
type Removal struct {
	SessionID string
	Deleted   bool                // the session became empty and was deleted
	Remaining []protocol.PlayerID // members left behind, empty when Deleted
}

// HasMember reports whether the player is a member
func (s *Session) HasMember(player protocol.PlayerID) bool {
	return s.memberIndex(player) >= 0
}

// MemberIDs returns member identities in join order
func (s *Session) MemberIDs() []protocol.PlayerID {
	ids := make([]protocol.PlayerID, len(s.Clients))
	for i, m := range s.Clients {
		ids[i] = m.PlayerID
	}
	return ids
}

// ToInfo converts the session for the wire
func (s *Session) ToInfo() protocol.SessionInfo {
	clients := make([]protocol.MemberInfo, len(s.Clients))
	for i, m := range s.Clients {
		clients[i] = protocol.MemberInfo{PlayerID: m.PlayerID, Ready: m.Ready}
	}

	actions := make([]protocol.ActionInfo, len(s.ActionList))
	for i, a := range s.ActionList {
		actions[i] = protocol.ActionInfo{PlayerID: a.PlayerID, MoveData: rawOrNull(a.MoveData), Sequence: a.Sequence}
	}

	return protocol.SessionInfo{
		SessionID:  s.ID,
		State:      string(s.State),
		Host:       s.Host,
		MapLayout:  rawOrNull(s.MapLayout),
		Clients:    clients,
		ActionList: actions,
	}
}

func (s *Session) memberIndex(player protocol.PlayerID) int {
	for i, m := range s.Clients {
		if m.PlayerID == player {
			return i
		}
	}
	return -1
}

// clone deep copy for snapshots handed out of the store
func (s *Session) clone() *Session {
	cp := *s
	cp.MapLayout = cloneRaw(s.MapLayout)
	cp.Clients = append([]Member(nil), s.Clients...)
	cp.ActionList = make([]ActionRecord, len(s.ActionList))
	for i, a := range s.ActionList {
		cp.ActionList[i] = ActionRecord{PlayerID: a.PlayerID, MoveData: cloneRaw(a.MoveData), Sequence: a.Sequence}
	}
	return &cp
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
