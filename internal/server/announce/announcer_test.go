package announce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/server/broadcast"
	"github.com/palemoky/session-relay/internal/server/registry"
	"github.com/palemoky/session-relay/internal/server/session"
	"github.com/palemoky/session-relay/internal/testutil"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, opts ...Option) (*Announcer, *registry.Registry, *session.MemoryStore) {
	t.Helper()
	reg := registry.New()
	store := session.NewMemoryStore()
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return New(reg, store, broadcast.NewService(reg), time.Hour, opts...), reg, store
}

func TestAnnouncer_Tick(t *testing.T) {
	t.Parallel()

	a, reg, store := setup(t)
	c1 := testutil.NewRecordingClient("c1")
	c2 := testutil.NewRecordingClient("c2")
	reg.Register(c1)
	reg.Register(c2)

	sess, err := store.Create(protocol.NumericPlayerID(1), nil)
	require.NoError(t, err)

	a.Tick(context.Background())

	for _, c := range []*testutil.RecordingClient{c1, c2} {
		assert.Equal(t, []string{"heartbeat", "summary", "status"}, c.Types())
	}

	summary := c1.ByType("summary")[0]
	assert.Equal(t, float64(2), summary["clients"])
	assert.Equal(t, float64(1), summary["sessions"])
	assert.Equal(t, "There are currently 2 clients connected across 1 sessions.", summary["text"])

	status := c1.ByType("status")[0]
	sessions := status["sessions"].([]any)
	require.Len(t, sessions, 1)
	assert.Equal(t, sess.ID, sessions[0].(map[string]any)["session_id"])
	assert.Equal(t, float64(fixedNow.UnixMilli()), status["generated_at"])
}

func TestAnnouncer_TickWithoutConnections(t *testing.T) {
	t.Parallel()

	a, _, _ := setup(t)
	assert.NotPanics(t, func() { a.Tick(context.Background()) })
}

func TestAnnouncer_SinkReceivesStatus(t *testing.T) {
	t.Parallel()

	sink := new(testutil.MockStatusSink)
	sink.On("SaveStatus", mock.Anything, mock.MatchedBy(func(s protocol.StatusPayload) bool {
		return s.MessageType == protocol.OutStatus && len(s.Sessions) == 1
	})).Return(nil).Once()

	a, _, store := setup(t, WithSink(sink))
	_, err := store.Create(protocol.NumericPlayerID(1), nil)
	require.NoError(t, err)

	a.Tick(context.Background())
	sink.AssertExpectations(t)
}

func TestAnnouncer_SinkFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	sink := new(testutil.MockStatusSink)
	sink.On("SaveStatus", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	a, reg, _ := setup(t, WithSink(sink))
	c := testutil.NewRecordingClient("c1")
	reg.Register(c)

	assert.NotPanics(t, func() { a.Tick(context.Background()) })
	assert.Len(t, c.Frames(), 3)
}

func TestAnnouncer_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	c := testutil.NewRecordingClient("c1")
	reg.Register(c)
	a := New(reg, session.NewMemoryStore(), broadcast.NewService(reg), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(c.Frames()) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("announcer did not stop")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	a := New(reg, session.NewMemoryStore(), broadcast.NewService(reg), 0)
	assert.Equal(t, DefaultInterval, a.interval)
}

type fixedSnapshot struct {
	clients  int
	sessions []*session.Session
}

func (f fixedSnapshot) Snapshot() (int, []*session.Session) {
	return f.clients, f.sessions
}

func TestAnnouncer_UsesSnapshotter(t *testing.T) {
	t.Parallel()

	view := fixedSnapshot{
		clients: 5,
		sessions: []*session.Session{{
			ID:      "s1",
			State:   session.StateRunning,
			Host:    protocol.NumericPlayerID(1),
			Clients: []session.Member{{PlayerID: protocol.NumericPlayerID(1), Ready: true}},
		}},
	}
	a, reg, store := setup(t, WithSnapshotter(view))
	c := testutil.NewRecordingClient("c1")
	reg.Register(c)
	_, err := store.Create(protocol.NumericPlayerID(9), nil)
	require.NoError(t, err)

	a.Tick(context.Background())

	summary := c.ByType("summary")[0]
	assert.Equal(t, float64(5), summary["clients"])
	assert.Equal(t, float64(1), summary["sessions"])

	sessions := c.ByType("status")[0]["sessions"].([]any)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].(map[string]any)["session_id"])
}
