// Package control translates viewer input into device key and touch commands.
package control

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/session"
)

// Server handles websocket control input.
type Server struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	session  *session.Session
	router   *Router
	logger   *slog.Logger
	conn     *websocket.Conn
}

// NewServer creates a control websocket server.
func NewServer(sess *session.Session, router *Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		session: sess,
		router:  router,
		logger:  logging.NewComponentLogger(logger, "control"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and processes control messages.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.session.IsAuthenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()
	logger := s.logger.With(logging.String("conn", id))
	if !s.acceptConn(conn) {
		logger.Info("control connection rejected; another viewer is active")
		_ = conn.WriteJSON(s.router.Status("Another viewer is connected"))
		_ = conn.Close()
		return
	}
	defer s.cleanupConn(conn)
	logger.Info("control connection opened")

	_ = conn.WriteJSON(s.router.Status(s.session.Status()))
	ctx := r.Context()
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Debug("control connection closed", logging.Error(err))
			return
		}
		if err := s.handleMessage(ctx, conn, msg); err != nil {
			return
		}
	}
}

// handleMessage applies msg and writes its status reply.
func (s *Server) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) error {
	reply, ok := s.router.Apply(ctx, msg)
	if !ok {
		return nil
	}
	return conn.WriteJSON(reply)
}

// acceptConn ensures only one active control connection exists.
func (s *Server) acceptConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return false
	}
	s.conn = conn
	return true
}

// cleanupConn clears the active connection when closed.
func (s *Server) cleanupConn(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}
