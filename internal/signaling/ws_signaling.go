// Package signaling negotiates the WebRTC viewer session over a websocket.
package signaling

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"

	"github.com/frudas24/devmirror/internal/logging"
)

// ViewerPolicy controls how additional viewers are handled.
type ViewerPolicy int

const (
	// ViewerReject rejects new connections when one is active.
	ViewerReject ViewerPolicy = iota
	// ViewerReplace closes the active connection when a new one arrives.
	ViewerReplace
)

// ErrViewerActive is returned when a second viewer arrives under ViewerReject.
var ErrViewerActive = errors.New("viewer already connected")

// errInactive reports a write to a connection that has been replaced.
var errInactive = errors.New("connection no longer active")

// PeerSource creates peer connections for new viewers.
type PeerSource interface {
	NewPeer() (*webrtc.PeerConnection, error)
}

// Server handles WebRTC signaling over WebSocket.
type Server struct {
	mu       sync.Mutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	peers    PeerSource
	policy   ViewerPolicy
	authFn   func() bool
	logger   *slog.Logger
	conn     *websocket.Conn
	peer     *webrtc.PeerConnection
}

// NewServer creates a signaling server with the chosen viewer policy and auth function.
func NewServer(peers PeerSource, policy ViewerPolicy, authFn func() bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		peers:  peers,
		policy: policy,
		authFn: authFn,
		logger: logging.NewComponentLogger(logger, "signaling"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and starts the signaling loop.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.authFn != nil && !s.authFn() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	logger := s.logger.With(logging.String("conn", uuid.NewString()))

	if err := s.acceptConn(conn); err != nil {
		logger.Info("viewer rejected", logging.Error(err))
		s.rejectConn(conn, err.Error())
		return
	}
	defer s.cleanupConn(conn)

	peer, err := s.peers.NewPeer()
	if err != nil {
		logger.Warn("peer creation failed", logging.Error(err))
		_ = s.sendTo(conn, Message{T: MsgError, Text: err.Error()})
		return
	}
	if err := s.attachPeer(conn, peer); err != nil {
		_ = peer.Close()
		return
	}
	logger.Info("viewer connected")

	peer.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		candidate := c.ToJSON()
		_ = s.sendTo(conn, Message{T: MsgICE, Candidate: &candidate})
	})
	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Debug("peer state", logging.String("state", state.String()))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Info("viewer disconnected")
			return
		}
		if err := s.handleMessage(conn, peer, msg); err != nil {
			logger.Warn("signaling failed", logging.String("type", msg.T), logging.Error(err))
			_ = s.sendTo(conn, Message{T: MsgError, Text: err.Error()})
			return
		}
	}
}

// Active reports whether a viewer is connected.
func (s *Server) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// acceptConn registers a new websocket connection or returns an error.
func (s *Server) acceptConn(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		if s.policy != ViewerReplace {
			return ErrViewerActive
		}
		_ = s.conn.Close()
		if s.peer != nil {
			_ = s.peer.Close()
		}
		s.conn = nil
		s.peer = nil
	}
	s.conn = conn
	return nil
}

// rejectConn sends a policy violation close and closes the socket.
func (s *Server) rejectConn(conn *websocket.Conn, reason string) {
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	_ = conn.Close()
}

// attachPeer stores the peer connection when the websocket is still active.
func (s *Server) attachPeer(conn *websocket.Conn, peer *webrtc.PeerConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return errInactive
	}
	s.peer = peer
	return nil
}

// cleanupConn clears state if the connection is still the active one.
func (s *Server) cleanupConn(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		if s.peer != nil {
			_ = s.peer.Close()
			s.peer = nil
		}
	}
	s.mu.Unlock()
	_ = conn.Close()
}

// handleMessage dispatches signaling messages.
func (s *Server) handleMessage(conn *websocket.Conn, peer *webrtc.PeerConnection, msg Message) error {
	switch msg.T {
	case MsgOffer:
		return s.handleOffer(conn, peer, msg.SDP)
	case MsgICE:
		if msg.Candidate == nil {
			return nil
		}
		return peer.AddICECandidate(*msg.Candidate)
	default:
		return nil
	}
}

// handleOffer processes an SDP offer and replies with an answer.
func (s *Server) handleOffer(conn *websocket.Conn, peer *webrtc.PeerConnection, sdp string) error {
	if sdp == "" {
		return errors.New("empty offer")
	}
	if err := peer.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  sdp,
	}); err != nil {
		return err
	}
	answer, err := peer.CreateAnswer(nil)
	if err != nil {
		return err
	}
	gatherComplete := webrtc.GatheringCompletePromise(peer)
	if err := peer.SetLocalDescription(answer); err != nil {
		return err
	}
	<-gatherComplete
	local := peer.LocalDescription()
	if local == nil {
		return errors.New("missing local description")
	}
	return s.sendTo(conn, Message{T: MsgAnswer, SDP: local.SDP})
}

// sendTo writes a message to the active connection.
func (s *Server) sendTo(conn *websocket.Conn, msg Message) error {
	s.mu.Lock()
	active := s.conn
	s.mu.Unlock()
	if active != conn {
		return errInactive
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(msg)
}
