// Package webrtc publishes mirrored frames and receives input over WebRTC data channels.
package webrtc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"

	"github.com/frudas24/devmirror/internal/control"
	"github.com/frudas24/devmirror/internal/frame"
	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/mjpeg"
)

const (
	// FramesLabel is the server-created channel carrying JPEG frames.
	FramesLabel = "frames"
	// InputLabel is the viewer-created channel carrying CBOR control messages.
	InputLabel = "input"
	// MaxFrameBytes bounds a single data channel message.
	MaxFrameBytes = 64 * 1024
	// maxBuffered skips frames while the channel still holds older data.
	maxBuffered = 2 * MaxFrameBytes
)

// InputHandler applies control messages and returns an optional reply.
type InputHandler interface {
	Apply(ctx context.Context, msg control.Message) (control.Message, bool)
}

// FrameSource hands out rendered frames on a latest-wins channel.
type FrameSource interface {
	Subscribe() (<-chan frame.Rendered, func())
}

// Publisher manages the peer connection and its data channels.
type Publisher struct {
	mu     sync.Mutex
	api    *webrtc.API
	peer   *webrtc.PeerConnection
	frames *webrtc.DataChannel
	input  InputHandler
	logger *slog.Logger

	sent    atomic.Uint64
	skipped atomic.Uint64
}

// NewPublisher initializes a WebRTC API with default codecs/interceptors.
func NewPublisher(input InputHandler, logger *slog.Logger) (*Publisher, error) {
	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	interceptors := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, interceptors); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(media),
		webrtc.WithInterceptorRegistry(interceptors),
	)
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{api: api, input: input, logger: logging.NewComponentLogger(logger, "webrtc")}, nil
}

// NewPeer creates a new peer connection with the frames channel, replacing any previous peer.
func (p *Publisher) NewPeer() (*webrtc.PeerConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
		p.frames = nil
	}

	peer, err := p.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, err
	}

	ordered := false
	var retransmits uint16
	frames, err := peer.CreateDataChannel(FramesLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &retransmits,
	})
	if err != nil {
		_ = peer.Close()
		return nil, err
	}

	peer.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != InputLabel {
			return
		}
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if reply, ok := p.handleInput(msg.Data); ok {
				_ = dc.Send(reply)
			}
		})
	})

	p.peer = peer
	p.frames = frames
	return peer, nil
}

// ClosePeer closes the current peer connection.
func (p *Publisher) ClosePeer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
		p.frames = nil
	}
}

// Pump encodes frames from src and sends them on the frames channel until ctx is cancelled.
func (p *Publisher) Pump(ctx context.Context, src FrameSource, quality int) {
	ch, cancel := src.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			if r.Image == nil || !p.ready() {
				continue
			}
			p.sendFrame(mjpeg.EncodeImage(r.Image, quality))
		}
	}
}

// Counts returns the number of frames sent and skipped.
func (p *Publisher) Counts() (sent, skipped uint64) {
	return p.sent.Load(), p.skipped.Load()
}

// ready reports whether the frames channel is open.
func (p *Publisher) ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames != nil && p.frames.ReadyState() == webrtc.DataChannelStateOpen
}

// sendFrame sends jpg unless it is oversized or the channel is backed up.
func (p *Publisher) sendFrame(jpg []byte) {
	p.mu.Lock()
	dc := p.frames
	p.mu.Unlock()
	if dc == nil {
		return
	}
	if len(jpg) > MaxFrameBytes || dc.BufferedAmount() > maxBuffered {
		p.skipped.Add(1)
		return
	}
	if err := dc.Send(jpg); err != nil {
		p.logger.Debug("frame send failed", logging.Error(err))
		return
	}
	p.sent.Add(1)
	if debugFramesEnabled() {
		p.logger.Debug("frame sent", logging.Int("bytes", len(jpg)))
	}
}

// handleInput decodes a CBOR control message, applies it and encodes the reply.
func (p *Publisher) handleInput(data []byte) ([]byte, bool) {
	if p.input == nil {
		return nil, false
	}
	msg, err := control.DecodeCBOR(data)
	if err != nil {
		p.logger.Debug("bad input message", logging.Error(err))
		return nil, false
	}
	reply, ok := p.input.Apply(context.Background(), msg)
	if !ok {
		return nil, false
	}
	out, err := control.EncodeCBOR(reply)
	if err != nil {
		return nil, false
	}
	return out, true
}
