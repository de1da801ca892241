//go:build !production

package testutil

import (
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/server/session"
)

// MockSessionStore 实现 types.SessionStore 的 mock
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(host protocol.PlayerID, mapLayout json.RawMessage) (*session.Session, error) {
	args := m.Called(host, mapLayout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionStore) Join(sessionID string, player protocol.PlayerID) (*session.Session, error) {
	args := m.Called(sessionID, player)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionStore) Start(sessionID string) (*session.Session, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionStore) AppendAction(sessionID string, player protocol.PlayerID, move json.RawMessage) (session.ActionRecord, []protocol.PlayerID, error) {
	args := m.Called(sessionID, player, move)
	var members []protocol.PlayerID
	if v := args.Get(1); v != nil {
		members = v.([]protocol.PlayerID)
	}
	return args.Get(0).(session.ActionRecord), members, args.Error(2)
}

func (m *MockSessionStore) RemoveMember(sessionID string, player protocol.PlayerID) (session.Removal, error) {
	args := m.Called(sessionID, player)
	return args.Get(0).(session.Removal), args.Error(1)
}

func (m *MockSessionStore) RemovePlayer(player protocol.PlayerID) []session.Removal {
	args := m.Called(player)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]session.Removal)
}

func (m *MockSessionStore) Snapshot(sessionID string) (*session.Session, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionStore) SnapshotAll() []*session.Session {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*session.Session)
}

func (m *MockSessionStore) Count() int {
	args := m.Called()
	return args.Int(0)
}
