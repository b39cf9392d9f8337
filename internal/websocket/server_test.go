package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/avsim/atc-engine/pkg/logger"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	server := NewServer(log)
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return server, httpServer
}

func dial(t *testing.T, httpServer *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, err := websocket.Dial(wsURL, "", httpServer.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, server *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, server.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	server, httpServer := testServer(t)

	first := dial(t, httpServer)
	second := dial(t, httpServer)
	waitForClients(t, server, 2)

	server.Broadcast(&Message{
		Type: "controller_message",
		Data: map[string]interface{}{"text": "Taxi via Alpha."},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		var got Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, websocket.JSON.Receive(conn, &got))
		assert.Equal(t, "controller_message", got.Type)
		assert.Equal(t, "Taxi via Alpha.", got.Data["text"])
		assert.False(t, got.Timestamp.IsZero())
	}
}

func TestDisconnectedClientIsRemoved(t *testing.T) {
	server, httpServer := testServer(t)

	conn := dial(t, httpServer)
	waitForClients(t, server, 1)

	conn.Close()
	waitForClients(t, server, 0)
}
