package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/palemoky/session-relay/internal/apperrors"
	"github.com/palemoky/session-relay/internal/protocol"
)

// idBytes session id width (128 bit)
const idBytes = 16

// MemoryStore in-memory session store.
// Every operation acts on one session under a single lock; snapshots handed
// out are deep copies.
type MemoryStore struct {
	sessions map[string]*Session
	newID    func() (string, error)
	now      func() time.Time
	mu       sync.RWMutex
}

// Option configures a MemoryStore
type Option func(*MemoryStore)

// WithIDGenerator overrides session id generation
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *MemoryStore) { s.newID = fn }
}

// WithClock overrides the creation timestamp source
func WithClock(fn func() time.Time) Option {
	return func(s *MemoryStore) { s.now = fn }
}

// NewMemoryStore creates an empty store
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		newID:    GenerateID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateID returns a crypto-random 128-bit hex token
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create allocates a waiting session whose only member is the ready host
func (s *MemoryStore) Create(host protocol.PlayerID, mapLayout json.RawMessage) (*Session, error) {
	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, apperrors.ErrRetryableConflict.WithText(fmt.Sprintf("Session id %s already in use, please retry", id))
	}

	sess := &Session{
		ID:         id,
		State:      StateWaiting,
		Host:       host,
		MapLayout:  cloneRaw(mapLayout),
		Clients:    []Member{{PlayerID: host, Ready: true}},
		ActionList: []ActionRecord{},
		CreatedAt:  s.now(),
	}
	s.sessions[id] = sess

	return sess.clone(), nil
}

// Join adds a ready member
func (s *MemoryStore) Join(sessionID string, player protocol.PlayerID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	if sess.HasMember(player) {
		return nil, apperrors.ErrAlreadyMember.WithText(
			fmt.Sprintf("Player %s is already in session %s", player, sessionID))
	}

	sess.Clients = append(sess.Clients, Member{PlayerID: player, Ready: true})
	return sess.clone(), nil
}

// Start moves the session to running. Member readiness is not checked.
func (s *MemoryStore) Start(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.State = StateRunning
	return sess.clone(), nil
}

// AppendAction appends to the action log in any state and returns the record
// together with a copy of the current members.
func (s *MemoryStore) AppendAction(sessionID string, player protocol.PlayerID, move json.RawMessage) (ActionRecord, []protocol.PlayerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return ActionRecord{}, nil, err
	}

	record := ActionRecord{
		PlayerID: player,
		MoveData: cloneRaw(move),
		Sequence: len(sess.ActionList),
	}
	sess.ActionList = append(sess.ActionList, record)

	return ActionRecord{PlayerID: record.PlayerID, MoveData: cloneRaw(record.MoveData), Sequence: record.Sequence},
		sess.MemberIDs(), nil
}

// RemoveMember removes one member, deleting the session once it is empty
func (s *MemoryStore) RemoveMember(sessionID string, player protocol.PlayerID) (Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return Removal{}, err
	}

	if !sess.HasMember(player) {
		return Removal{}, apperrors.ErrNotMember.WithText(
			fmt.Sprintf("Player %s is not in session %s", player, sessionID))
	}

	return s.removeLocked(sess, player), nil
}

// RemovePlayer removes the player from every session in one step
func (s *MemoryStore) RemovePlayer(player protocol.PlayerID) []Removal {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removals []Removal
	for _, sess := range s.sessions {
		if sess.HasMember(player) {
			removals = append(removals, s.removeLocked(sess, player))
		}
	}

	sort.Slice(removals, func(i, j int) bool { return removals[i].SessionID < removals[j].SessionID })
	return removals
}

// Snapshot returns a copy of one session
func (s *MemoryStore) Snapshot(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// SnapshotAll returns copies of every session, oldest first
func (s *MemoryStore) SnapshotAll() []*Session {
	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess.clone())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all
}

// Count number of live sessions
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) get(sessionID string) (*Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound.WithText(fmt.Sprintf("Session %s does not exist", sessionID))
	}
	return sess, nil
}

// removeLocked caller holds s.mu
func (s *MemoryStore) removeLocked(sess *Session, player protocol.PlayerID) Removal {
	idx := sess.memberIndex(player)
	if idx >= 0 {
		sess.Clients = append(sess.Clients[:idx], sess.Clients[idx+1:]...)
	}

	if len(sess.Clients) == 0 {
		delete(s.sessions, sess.ID)
		log.Printf("🗑️ session %s deleted, last member %s left", sess.ID, player)
		return Removal{SessionID: sess.ID, Deleted: true}
	}

	return Removal{SessionID: sess.ID, Remaining: sess.MemberIDs()}
}
