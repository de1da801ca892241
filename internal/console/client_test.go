package console

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func echoHandler(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = c.Close() }()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			break
		}
		_ = c.WriteMessage(mt, message)
	}
}

func TestClient_ConnectAndSend(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer s.Close()

	client := NewClient("ws" + strings.TrimPrefix(s.URL, "http"))
	require.NoError(t, client.Connect())
	defer client.Close()
	assert.True(t, client.IsConnected())

	require.NoError(t, client.Send([]byte(`{"message_type":"pong","client_timestamp":1}`)))

	select {
	case frame := <-client.Incoming():
		assert.Equal(t, "pong", frame.Type)
		assert.JSONEq(t, `{"message_type":"pong","client_timestamp":1}`, string(frame.Raw))
	case <-time.After(2 * time.Second):
		t.Fatal("no echo received")
	}
}

func TestClient_NonJSONFrame(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer s.Close()

	client := NewClient("ws" + strings.TrimPrefix(s.URL, "http"))
	require.NoError(t, client.Connect())
	defer client.Close()

	require.NoError(t, client.Send([]byte("hello")))
	select {
	case frame := <-client.Incoming():
		assert.Empty(t, frame.Type)
		assert.Equal(t, "hello", string(frame.Raw))
	case <-time.After(2 * time.Second):
		t.Fatal("no echo received")
	}
}

func TestClient_CloseStopsIncoming(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer s.Close()

	client := NewClient("ws" + strings.TrimPrefix(s.URL, "http"))
	require.NoError(t, client.Connect())

	client.Close()
	assert.False(t, client.IsConnected())
	assert.ErrorIs(t, client.Send([]byte("{}")), errConnClosed)

	select {
	case _, ok := <-client.Incoming():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("incoming not closed")
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1/")
	assert.Error(t, client.Connect())
	assert.False(t, client.IsConnected())
}
