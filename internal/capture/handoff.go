// Package capture runs the framebuffer acquisition loop and hands frames to viewers.
package capture

import (
	"sync"

	"github.com/frudas24/devmirror/internal/frame"
)

// Sink receives rendered frames from the acquisition loop.
type Sink interface {
	Present(r frame.Rendered)
	PresentPlaceholder()
}

// Handoff is a latest-wins mailbox between the loop and its viewers.
// Writers never block; a slow subscriber only ever sees the newest frame.
type Handoff struct {
	layout frame.Layout

	mu     sync.RWMutex
	latest frame.Rendered
	has    bool
	subs   map[chan frame.Rendered]struct{}
}

// NewHandoff returns an empty mailbox for frames of the given layout.
func NewHandoff(layout frame.Layout) *Handoff {
	return &Handoff{layout: layout, subs: make(map[chan frame.Rendered]struct{})}
}

// Present stores r as the latest frame and signals subscribers.
func (h *Handoff) Present(r frame.Rendered) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = r
	h.has = true
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- r:
		default:
		}
	}
}

// PresentPlaceholder publishes the "no device" canvas.
func (h *Handoff) PresentPlaceholder() {
	h.Present(frame.Rendered{Image: frame.Placeholder(h.layout), Placeholder: true})
}

// Latest returns the newest frame, if any.
func (h *Handoff) Latest() (frame.Rendered, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.has
}

// Geometry returns the geometry of the newest frame. Placeholders yield the zero value.
func (h *Handoff) Geometry() frame.Geometry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest.Geometry
}

// Layout returns the canvas layout of every frame passing through.
func (h *Handoff) Layout() frame.Layout {
	return h.layout
}

// Subscribe returns a 1-slot channel primed with the latest frame and a cancel func.
func (h *Handoff) Subscribe() (<-chan frame.Rendered, func()) {
	ch := make(chan frame.Rendered, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.has {
		ch <- h.latest
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}
