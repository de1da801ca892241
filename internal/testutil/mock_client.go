//go:build !production

package testutil

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"
)

// ErrClientClosed returned by RecordingClient.Send after Close
var ErrClientClosed = errors.New("client closed")

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockClient) Close() {
	m.Called()
}

// RecordingClient 记录所有发送帧的客户端，不使用 testify（用于场景测试）
type RecordingClient struct {
	ID      string
	SendErr error // returned by every Send when set

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

// NewRecordingClient creates a recording client with the given connection id
func NewRecordingClient(id string) *RecordingClient {
	return &RecordingClient{ID: id}
}

func (c *RecordingClient) GetID() string { return c.ID }

func (c *RecordingClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *RecordingClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called
func (c *RecordingClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Frames returns a copy of every frame sent so far
func (c *RecordingClient) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

// Messages decodes every frame as a JSON object
func (c *RecordingClient) Messages() []map[string]any {
	frames := c.Frames()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Types returns the message_type of every frame in order
func (c *RecordingClient) Types() []string {
	msgs := c.Messages()
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		t, _ := m["message_type"].(string)
		out = append(out, t)
	}
	return out
}

// ByType returns the frames with the given message_type
func (c *RecordingClient) ByType(messageType string) []map[string]any {
	var out []map[string]any
	for _, m := range c.Messages() {
		if m["message_type"] == messageType {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent frame decoded, or nil
func (c *RecordingClient) Last() map[string]any {
	msgs := c.Messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Reset drops recorded frames
func (c *RecordingClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}
