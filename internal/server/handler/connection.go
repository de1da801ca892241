package handler

import (
	"log"
	"time"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/types"
)

// Connect 注册新连接（尚未绑定身份）
func (h *Handler) Connect(client types.ClientInterface) {
	h.withLock(func() {
		h.directory.Register(client)
	})
}

// Disconnect 断开清理：注销连接，并把仍绑定在该连接上的身份从所有会话中移除。
// 空会话在同一步骤内删除。重复调用是空操作。
func (h *Handler) Disconnect(client types.ClientInterface, reason string) {
	type leftNotice struct {
		sessionID string
		player    protocol.PlayerID
		targets   []types.ClientInterface
	}

	var (
		players []protocol.PlayerID
		notices []leftNotice
		deleted int
	)

	h.withLock(func() {
		players = h.directory.Unregister(client)
		for _, player := range players {
			for _, removal := range h.store.RemovePlayer(player) {
				if removal.Deleted {
					deleted++
					continue
				}
				notices = append(notices, leftNotice{
					sessionID: removal.SessionID,
					player:    player,
					targets:   h.broadcaster.Members(removal.Remaining, ""),
				})
			}
		}
	})

	if h.messageLimiter != nil {
		h.messageLimiter.RemoveClient(client.GetID())
	}

	for _, n := range notices {
		h.notifyLeft(n.targets, n.sessionID, n.player, "disconnected from")
	}

	if len(players) > 0 {
		log.Printf("❌ connection %s closed (%s), players %v removed, %d sessions deleted",
			client.GetID(), reason, players, deleted)
	}
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	// 立即回复 pong
	h.send(client, protocol.PongPayload{
		MessageType:     protocol.OutPong,
		ClientTimestamp: msg.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	})
}
