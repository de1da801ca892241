package handler

import (
	"encoding/json"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/server/session"
	"github.com/palemoky/session-relay/internal/types"
)

// handlePlayerAction 处理玩家动作：写入动作日志并转发给其他成员
func (h *Handler) handlePlayerAction(client types.ClientInterface, msg *protocol.Message) {
	var (
		record session.ActionRecord
		others []types.ClientInterface
		err    error
	)

	h.withLock(func() {
		var members []protocol.PlayerID
		record, members, err = h.store.AppendAction(msg.SessionID, msg.PlayerID, msg.MoveData)
		if err != nil {
			return
		}
		others = h.broadcaster.Members(members, msg.PlayerID)
	})

	if err != nil {
		h.sendError(client, err)
		return
	}

	h.broadcaster.Deliver(others, protocol.NewPlayerActionPayload{
		MessageType: protocol.OutNewPlayerAction,
		SessionID:   msg.SessionID,
		PlayerID:    record.PlayerID,
		MoveData:    rawOrNull(record.MoveData),
		Sequence:    record.Sequence,
	})
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
