package types

import (
	"encoding/json"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/server/session"
)

// ClientInterface 定义客户端接口（一个活动连接）
type ClientInterface interface {
	GetID() string
	Send(data []byte) error
	Close()
}

// Directory 连接注册表接口：连接 ↔ 玩家身份
type Directory interface {
	Register(client ClientInterface)
	Bind(player protocol.PlayerID, client ClientInterface)
	Resolve(player protocol.PlayerID) (ClientInterface, error)
	Unregister(client ClientInterface) []protocol.PlayerID
	Connections() []ClientInterface
	Identities(client ClientInterface) []protocol.PlayerID
	Count() int
}

// SessionStore 会话存储接口
type SessionStore interface {
	Create(host protocol.PlayerID, mapLayout json.RawMessage) (*session.Session, error)
	Join(sessionID string, player protocol.PlayerID) (*session.Session, error)
	Start(sessionID string) (*session.Session, error)
	AppendAction(sessionID string, player protocol.PlayerID, move json.RawMessage) (session.ActionRecord, []protocol.PlayerID, error)
	RemoveMember(sessionID string, player protocol.PlayerID) (session.Removal, error)
	RemovePlayer(player protocol.PlayerID) []session.Removal
	Snapshot(sessionID string) (*session.Session, error)
	SnapshotAll() []*session.Session
	Count() int
}

// MessageLimiter 消息速率限制器接口
type MessageLimiter interface {
	Allow(clientID string) bool
	GetWarningCount(clientID string) int
	RemoveClient(clientID string)
}
