// Package control translates viewer input into device key and touch commands.
package control

import (
	"sync"
	"time"
)

// Pacer admits at most one event per interval and silently drops the rest.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewPacer returns a pacer with the given minimum spacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval, now: time.Now}
}

// SetNowFunc overrides the clock used for pacing.
func (p *Pacer) SetNowFunc(fn func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fn != nil {
		p.now = fn
	}
}

// Allow reports whether an event arriving now is accepted, and records it if so.
func (p *Pacer) Allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	return true
}
