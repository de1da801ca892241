//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/session-relay/internal/protocol"
)

// MockStatusSink 状态镜像 mock
type MockStatusSink struct {
	mock.Mock
}

func (m *MockStatusSink) SaveStatus(ctx context.Context, status protocol.StatusPayload) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}
