// Package websocket pushes engine events (controller replies, position
// changes, nearest-airport advisories) to connected UI clients.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/avsim/atc-engine/pkg/logger"
)

// Message is the envelope sent to every connected client.
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// Server broadcasts messages to all connected WebSocket clients.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  *logger.Logger
}

// NewServer creates a WebSocket broadcast server.
func NewServer(log *logger.Logger) *Server {
	return &Server{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  log.Named("websocket"),
	}
}

// Handler returns the HTTP handler that upgrades connections and holds them
// open until the client disconnects.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

func (s *Server) serve(conn *websocket.Conn) {
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("WebSocket client connected", logger.Int("clients", count))

	// Drain incoming frames; the connection is push-only. Read returns an
	// error when the client goes away.
	var discard string
	for {
		if err := websocket.Message.Receive(conn, &discard); err != nil {
			break
		}
	}

	s.remove(conn)
	s.logger.Info("WebSocket client disconnected")
}

func (s *Server) remove(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Broadcast sends a message to every connected client. Clients that fail to
// receive are dropped.
func (s *Server) Broadcast(message *Message) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		if err := websocket.JSON.Send(conn, message); err != nil {
			s.logger.Warn("Dropping unresponsive WebSocket client", logger.Error(err))
			s.remove(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
