package registry

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/palemoky/session-relay/internal/apperrors"
	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/types"
)

type entry struct {
	client     types.ClientInterface
	identities map[protocol.PlayerID]struct{}
}

// Registry tracks live connections and the identities bound to them.
// An identity maps to at most one connection; a later Bind replaces the
// earlier one (last writer wins) so a player can reconnect.
type Registry struct {
	conns    map[string]*entry            // connection id -> entry
	bindings map[protocol.PlayerID]string // identity -> connection id
	mu       sync.RWMutex
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		conns:    make(map[string]*entry),
		bindings: make(map[protocol.PlayerID]string),
	}
}

// Register adds a connection with no identity. Idempotent.
func (r *Registry) Register(client types.ClientInterface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(client)
}

func (r *Registry) registerLocked(client types.ClientInterface) *entry {
	e, ok := r.conns[client.GetID()]
	if !ok {
		e = &entry{client: client, identities: make(map[protocol.PlayerID]struct{})}
		r.conns[client.GetID()] = e
	}
	return e
}

// Bind associates the identity with the connection, displacing any previous
// connection bound to it. The displaced connection is not notified.
func (r *Registry) Bind(player protocol.PlayerID, client types.ClientInterface) {
	if player.IsZero() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prevID, ok := r.bindings[player]; ok && prevID != client.GetID() {
		if prev, ok := r.conns[prevID]; ok {
			delete(prev.identities, player)
		}
		log.Printf("🔁 player %s rebound from connection %s to %s", player, prevID, client.GetID())
	}

	e := r.registerLocked(client)
	e.identities[player] = struct{}{}
	r.bindings[player] = client.GetID()
}

// Resolve returns the connection currently bound to the identity
func (r *Registry) Resolve(player protocol.PlayerID) (types.ClientInterface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if connID, ok := r.bindings[player]; ok {
		if e, ok := r.conns[connID]; ok {
			return e.client, nil
		}
	}
	return nil, apperrors.ErrUnknownRecipient.WithText(fmt.Sprintf("Player %s has no live connection", player))
}

// Unregister removes the connection and returns the identities that were
// still bound to it. A second call returns nothing.
func (r *Registry) Unregister(client types.ClientInterface) []protocol.PlayerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[client.GetID()]
	if !ok {
		return nil
	}
	delete(r.conns, client.GetID())

	ids := make([]protocol.PlayerID, 0, len(e.identities))
	for id := range e.identities {
		if r.bindings[id] == client.GetID() {
			delete(r.bindings, id)
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Identities returns the identities currently bound to the connection
func (r *Registry) Identities(client types.ClientInterface) []protocol.PlayerID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[client.GetID()]
	if !ok {
		return nil
	}
	ids := make([]protocol.PlayerID, 0, len(e.identities))
	for id := range e.identities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Connections returns a snapshot of every live connection
func (r *Registry) Connections() []types.ClientInterface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ClientInterface, 0, len(r.conns))
	for _, e := range r.conns {
		out = append(out, e.client)
	}
	return out
}

// Count number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
