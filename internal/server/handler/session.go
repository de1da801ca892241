package handler

import (
	"errors"
	"fmt"
	"log"

	"github.com/palemoky/session-relay/internal/apperrors"
	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/server/session"
	"github.com/palemoky/session-relay/internal/types"
)

// maxCreateAttempts session id collisions retried before giving up
const maxCreateAttempts = 3

// handleCreateSession 处理创建会话
func (h *Handler) handleCreateSession(client types.ClientInterface, msg *protocol.Message) {
	var (
		sess *session.Session
		err  error
	)

	h.withLock(func() {
		for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
			sess, err = h.store.Create(msg.PlayerID, msg.MapLayout)
			if !errors.Is(err, apperrors.ErrRetryableConflict) {
				break
			}
			log.Printf("🔁 session id collision, retry %d/%d", attempt, maxCreateAttempts)
		}
		if err == nil {
			h.directory.Bind(msg.PlayerID, client)
		}
	})

	if err != nil {
		h.sendError(client, err)
		return
	}

	h.send(client, protocol.NewSessionState(protocol.OutSessionState, sess.ToInfo()))
	log.Printf("🏠 session %s created by player %s", sess.ID, msg.PlayerID)
}

// handleJoinSession 处理加入会话
func (h *Handler) handleJoinSession(client types.ClientInterface, msg *protocol.Message) {
	var (
		sess     *session.Session
		err      error
		everyone []types.ClientInterface
	)

	h.withLock(func() {
		sess, err = h.store.Join(msg.SessionID, msg.PlayerID)
		if err != nil {
			return
		}
		h.directory.Bind(msg.PlayerID, client)
		everyone = h.directory.Connections()
	})

	if err != nil {
		h.sendError(client, err)
		return
	}

	h.send(client, protocol.NewSessionState(protocol.OutSessionState, sess.ToInfo()))
	h.broadcaster.Deliver(everyone, protocol.PlayerJoinedPayload{
		MessageType: protocol.OutPlayerJoined,
		SessionID:   sess.ID,
		PlayerID:    msg.PlayerID,
		Text:        fmt.Sprintf("Session %s joined by player %s", sess.ID, msg.PlayerID),
	})
	log.Printf("➡️ player %s joined session %s (%d members)", msg.PlayerID, sess.ID, len(sess.Clients))
}

// handleStartSession 处理开始会话，不检查成员是否准备
func (h *Handler) handleStartSession(client types.ClientInterface, msg *protocol.Message) {
	var (
		sess     *session.Session
		err      error
		everyone []types.ClientInterface
		members  []types.ClientInterface
	)

	h.withLock(func() {
		sess, err = h.store.Start(msg.SessionID)
		if err != nil {
			return
		}
		everyone = h.directory.Connections()
		members = h.broadcaster.Members(sess.MemberIDs(), "")
	})

	if err != nil {
		h.sendError(client, err)
		return
	}

	h.broadcaster.Deliver(everyone, protocol.SessionStartedPayload{
		MessageType: protocol.OutSessionStarted,
		SessionID:   sess.ID,
		Text:        fmt.Sprintf("Session %s started", sess.ID),
	})
	h.broadcaster.Deliver(members, protocol.NewSessionState(protocol.OutSessionStart, sess.ToInfo()))
	log.Printf("🎮 session %s started by player %s", sess.ID, msg.PlayerID)
}

// handleLeaveSession 处理离开会话
func (h *Handler) handleLeaveSession(client types.ClientInterface, msg *protocol.Message) {
	var (
		removal session.Removal
		err     error
		others  []types.ClientInterface
	)

	h.withLock(func() {
		removal, err = h.store.RemoveMember(msg.SessionID, msg.PlayerID)
		if err != nil {
			return
		}
		others = h.broadcaster.Members(removal.Remaining, "")
	})

	if err != nil {
		h.sendError(client, err)
		return
	}

	h.send(client, protocol.SessionLeftPayload{
		MessageType: protocol.OutSessionLeft,
		SessionID:   removal.SessionID,
		PlayerID:    msg.PlayerID,
		Deleted:     removal.Deleted,
		Text:        fmt.Sprintf("Player %s left session %s", msg.PlayerID, removal.SessionID),
	})
	h.notifyLeft(others, removal.SessionID, msg.PlayerID, "left")
	log.Printf("⬅️ player %s left session %s (deleted=%v)", msg.PlayerID, removal.SessionID, removal.Deleted)
}

// notifyLeft tells the remaining members that a player is gone
func (h *Handler) notifyLeft(targets []types.ClientInterface, sessionID string, player protocol.PlayerID, how string) {
	h.broadcaster.Deliver(targets, protocol.PlayerLeftPayload{
		MessageType: protocol.OutPlayerLeft,
		SessionID:   sessionID,
		PlayerID:    player,
		Text:        fmt.Sprintf("Player %s %s session %s", player, how, sessionID),
	})
}
