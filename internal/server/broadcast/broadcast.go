package broadcast

import (
	"log"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/protocol/codec"
	"github.com/palemoky/session-relay/internal/types"
)

// Service best-effort fan-out over the connection registry.
// Callers resolve recipients first and deliver after releasing their locks.
type Service struct {
	directory types.Directory
}

// NewService creates a broadcast service
func NewService(directory types.Directory) *Service {
	return &Service{directory: directory}
}

// Members resolves the bound connection of every member except exclude.
// Members without a live connection are skipped.
func (s *Service) Members(members []protocol.PlayerID, exclude protocol.PlayerID) []types.ClientInterface {
	targets := make([]types.ClientInterface, 0, len(members))
	for _, id := range members {
		if !exclude.IsZero() && id == exclude {
			continue
		}
		client, err := s.directory.Resolve(id)
		if err != nil {
			continue
		}
		targets = append(targets, client)
	}
	return targets
}

// Deliver encodes msg once and sends it to every target, returning how many
// sends succeeded. One failed send never stops the rest.
func (s *Service) Deliver(targets []types.ClientInterface, msg any) int {
	if len(targets) == 0 {
		return 0
	}

	data, err := codec.Encode(msg)
	if err != nil {
		log.Printf("⚠️ encode broadcast failed: %v", err)
		return 0
	}

	delivered := 0
	for _, client := range targets {
		if err := client.Send(data); err != nil {
			log.Printf("⚠️ send to %s failed: %v", client.GetID(), err)
			continue
		}
		delivered++
	}
	return delivered
}

// BroadcastAll sends msg to every live connection
func (s *Service) BroadcastAll(msg any) int {
	return s.Deliver(s.directory.Connections(), msg)
}

// BroadcastSession sends msg to every member of a session, optionally
// excluding one identity
func (s *Service) BroadcastSession(members []protocol.PlayerID, msg any, exclude protocol.PlayerID) int {
	return s.Deliver(s.Members(members, exclude), msg)
}

// SendTo sends msg to one connection
func (s *Service) SendTo(client types.ClientInterface, msg any) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}
	return client.Send(data)
}
