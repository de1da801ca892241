package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/session-relay/internal/protocol"
)

func newTestStatusStore(t *testing.T) (*StatusStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewStatusStore(client, "", 0), mr
}

func sampleStatus() protocol.StatusPayload {
	return protocol.StatusPayload{
		MessageType: protocol.OutStatus,
		Sessions: []protocol.SessionInfo{{
			SessionID:  "abc",
			State:      "waiting",
			Host:       protocol.NumericPlayerID(1),
			MapLayout:  json.RawMessage(`"L1"`),
			Clients:    []protocol.MemberInfo{{PlayerID: protocol.NumericPlayerID(1), Ready: true}},
			ActionList: []protocol.ActionInfo{},
		}},
		GeneratedAt: 1700000000000,
	}
}

func TestStatusStore_SaveLoad(t *testing.T) {
	store, mr := newTestStatusStore(t)
	defer mr.Close()
	ctx := context.Background()

	// Empty
	loaded, err := store.LoadStatus(ctx)
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	// Save
	require.NoError(t, store.SaveStatus(ctx, sampleStatus()))
	assert.True(t, mr.Exists(DefaultStatusKey))
	assert.Equal(t, DefaultStatusTTL, mr.TTL(DefaultStatusKey))

	// Load
	loaded, err = store.LoadStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Sessions, 1)
	assert.Equal(t, "abc", loaded.Sessions[0].SessionID)
	assert.Equal(t, protocol.NumericPlayerID(1), loaded.Sessions[0].Host)
	assert.Equal(t, int64(1700000000000), loaded.GeneratedAt)
}

func TestStatusStore_Expires(t *testing.T) {
	store, mr := newTestStatusStore(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, store.SaveStatus(ctx, sampleStatus()))
	mr.FastForward(DefaultStatusTTL + time.Second)

	loaded, err := store.LoadStatus(ctx)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStatusStore_CorruptData(t *testing.T) {
	store, mr := newTestStatusStore(t)
	defer mr.Close()

	require.NoError(t, mr.Set(DefaultStatusKey, "not json"))
	_, err := store.LoadStatus(context.Background())
	assert.Error(t, err)
}

func TestStatusStore_Publishes(t *testing.T) {
	store, mr := newTestStatusStore(t)
	defer mr.Close()
	ctx := context.Background()

	sub := store.client.Subscribe(ctx, store.Channel())
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	require.NoError(t, store.SaveStatus(ctx, sampleStatus()))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, store.Channel(), msg.Channel)
		var got protocol.StatusPayload
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, protocol.OutStatus, got.MessageType)
	case <-time.After(2 * time.Second):
		t.Fatal("no status published")
	}
}

func TestStatusStore_SaveFailsWhenRedisDown(t *testing.T) {
	store, mr := newTestStatusStore(t)
	mr.Close()

	err := store.SaveStatus(context.Background(), sampleStatus())
	assert.Error(t, err)
}

func TestNewStatusStore_CustomKey(t *testing.T) {
	t.Parallel()

	store := NewStatusStore(nil, "custom", time.Minute)
	assert.Equal(t, "custom", store.key)
	assert.Equal(t, time.Minute, store.ttl)
	assert.Equal(t, "custom:updates", store.Channel())
}
