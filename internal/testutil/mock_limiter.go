//go:build !production

package testutil

import "github.com/stretchr/testify/mock"

// MockMessageLimiter 消息限制器 mock
type MockMessageLimiter struct {
	mock.Mock
}

func (m *MockMessageLimiter) Allow(clientID string) bool {
	args := m.Called(clientID)
	return args.Bool(0)
}

func (m *MockMessageLimiter) GetWarningCount(clientID string) int {
	args := m.Called(clientID)
	return args.Int(0)
}

func (m *MockMessageLimiter) RemoveClient(clientID string) {
	m.Called(clientID)
}
