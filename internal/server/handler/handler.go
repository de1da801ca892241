package handler

import (
	"log"
	"sync"

	"github.com/palemoky/session-relay/internal/apperrors"
	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/protocol/codec"
	"github.com/palemoky/session-relay/internal/server/broadcast"
	"github.com/palemoky/session-relay/internal/server/session"
	"github.com/palemoky/session-relay/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Directory      types.Directory
	Store          types.SessionStore
	Broadcaster    *broadcast.Service
	MessageLimiter types.MessageLimiter // optional
}

// Handler 消息路由器
//
// mu is held for the whole of each logical operation across the directory and
// the store. Recipients are resolved under mu; frames are sent after it is
// released.
type Handler struct {
	directory      types.Directory
	store          types.SessionStore
	broadcaster    *broadcast.Service
	messageLimiter types.MessageLimiter
	handlers       map[protocol.MessageType]handlerFunc
	mu             sync.Mutex
}

// maxRateWarnings rejected frames tolerated before the connection is dropped
const maxRateWarnings = 10

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		directory:      deps.Directory,
		store:          deps.Store,
		broadcaster:    deps.Broadcaster,
		messageLimiter: deps.MessageLimiter,
	}
	if h.broadcaster == nil {
		h.broadcaster = broadcast.NewService(deps.Directory)
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 会话操作
		protocol.MsgCreateSession: h.handleCreateSession,
		protocol.MsgJoinSession:   h.handleJoinSession,
		protocol.MsgStartSession:  h.handleStartSession,
		protocol.MsgLeaveSession:  h.handleLeaveSession,

		// 游戏操作
		protocol.MsgPlayerAction: h.handlePlayerAction,

		// 连接操作
		protocol.MsgPing: h.handlePing,
	}
}

// Handle 处理一帧入站数据，返回 false 表示连接必须关闭
func (h *Handler) Handle(client types.ClientInterface, data []byte) bool {
	if h.messageLimiter != nil && !h.messageLimiter.Allow(client.GetID()) {
		h.sendError(client, apperrors.ErrRateLimited)
		if h.messageLimiter.GetWarningCount(client.GetID()) >= maxRateWarnings {
			log.Printf("🚫 connection %s exceeded message rate too often, disconnecting", client.GetID())
			h.Disconnect(client, "rate limited")
			client.Close()
			return false
		}
		return true
	}

	msg, err := codec.Decode(data)
	if err != nil {
		log.Printf("⚠️ invalid frame from %s: %v", client.GetID(), err)
		h.sendError(client, apperrors.ErrInvalidInput)
		return true
	}

	if msg.PlayerID.IsZero() {
		h.sendError(client, apperrors.ErrMissingIdentity)
		return true
	}

	handler, ok := h.handlers[msg.Type]
	if !ok {
		log.Printf("⚠️ unknown message type '%s' from player %s (conn %s), disconnecting", msg.Type, msg.PlayerID, client.GetID())
		h.sendError(client, apperrors.ErrUnknownMessageType.WithText("Unknown message type: "+string(msg.Type)))
		h.Disconnect(client, "unknown message type")
		client.Close()
		return false
	}

	if msg.Type.NeedsSession() && msg.SessionID == "" {
		h.sendError(client, apperrors.ErrMissingSessionID)
		return true
	}

	handler(client, msg)
	return true
}

// Snapshot returns the connection count and a copy of every session, taken
// under the operation lock so no half-applied operation is visible.
func (h *Handler) Snapshot() (clients int, sessions []*session.Session) {
	h.withLock(func() {
		clients = h.directory.Count()
		sessions = h.store.SnapshotAll()
	})
	return clients, sessions
}

// withLock runs fn holding the operation lock
func (h *Handler) withLock(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
}

func (h *Handler) send(client types.ClientInterface, msg any) {
	if err := h.broadcaster.SendTo(client, msg); err != nil {
		log.Printf("⚠️ send to %s failed: %v", client.GetID(), err)
	}
}

func (h *Handler) sendError(client types.ClientInterface, err error) {
	h.send(client, codec.ErrorFor(err))
}
