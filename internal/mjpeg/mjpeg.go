// Package mjpeg serves the mirrored screen as an MJPEG stream for browsers.
package mjpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"sync"
	"time"

	"github.com/frudas24/devmirror/internal/frame"
)

const (
	boundary       = "frame"
	defaultQuality = 80
	// resendInterval repeats the newest frame so idle viewers still see
	// throttled updates and proxies keep the response open.
	resendInterval = time.Second
)

// FrameSource hands out rendered frames on a latest-wins channel.
type FrameSource interface {
	Subscribe() (<-chan frame.Rendered, func())
}

// Stream fans the newest mirror JPEG out to every open /mjpeg/screen
// response. Each viewer holds at most one pending frame; a slow viewer
// skips frames rather than stalling the others.
type Stream struct {
	mu          sync.RWMutex
	subs        map[chan []byte]struct{}
	last        []byte
	minInterval time.Duration
	lastPush    time.Time
	now         func() time.Time
}

// NewStream returns a stream that broadcasts at most once per minInterval.
// Zero disables throttling.
func NewStream(minInterval time.Duration) *Stream {
	return &Stream{
		subs:        make(map[chan []byte]struct{}),
		minInterval: minInterval,
		now:         time.Now,
	}
}

// SetNowFunc overrides the throttle clock (tests).
func (s *Stream) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Latest returns a copy of the newest published frame, or nil.
func (s *Stream) Latest() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.last) == 0 {
		return nil
	}
	return append([]byte(nil), s.last...)
}

// Publish records jpg as the newest frame. Inside the throttle window the
// frame is only stored; viewers pick it up on the next resend.
func (s *Stream) Publish(jpg []byte) {
	buf := append([]byte(nil), jpg...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = buf
	now := s.now()
	if s.minInterval > 0 && now.Sub(s.lastPush) < s.minInterval {
		return
	}
	s.lastPush = now
	for ch := range s.subs {
		replace(ch, buf)
	}
}

// Handler streams multipart JPEG parts until the client goes away.
func (s *Stream) Handler(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Connection", "keep-alive")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	resend := time.NewTicker(resendInterval)
	defer resend.Stop()

	for {
		var jpg []byte
		select {
		case <-r.Context().Done():
			return
		case jpg = <-ch:
		case <-resend.C:
			jpg = s.Latest()
		}
		if len(jpg) == 0 {
			continue
		}
		if err := writePart(w, jpg); err != nil {
			return
		}
		fl.Flush()
	}
}

// EncodeImage encodes img as JPEG. Out-of-range quality falls back to 80.
func EncodeImage(img image.Image, quality int) []byte {
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	return buf.Bytes()
}

// Pump encodes every rendered frame from src and publishes it until ctx ends
// or src closes the subscription.
func (s *Stream) Pump(ctx context.Context, src FrameSource, quality int) {
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
			if r.Image == nil {
				continue
			}
			s.Publish(EncodeImage(r.Image, quality))
		}
	}
}

// subscribe registers a viewer, primed with the newest frame if any.
func (s *Stream) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	if len(s.last) > 0 {
		ch <- append([]byte(nil), s.last...)
	}
	s.mu.Unlock()
	return ch
}

func (s *Stream) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	delete(s.subs, ch)
	close(ch)
	s.mu.Unlock()
}

// replace swaps any pending frame in ch for jpg. Callers hold s.mu.
func replace(ch chan []byte, jpg []byte) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- jpg:
	default:
	}
}

func writePart(w http.ResponseWriter, jpg []byte) error {
	if _, err := fmt.Fprintf(w, "\r\n--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(jpg)); err != nil {
		return err
	}
	_, err := w.Write(jpg)
	return err
}
