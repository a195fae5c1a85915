// Package monitor tracks device reachability and reports debounced transitions.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/session"
)

// Prober answers whether a device is attached and ready.
type Prober interface {
	ListDevices(ctx context.Context) (bool, error)
}

// Listener receives debounced state transitions. ctx is the probing context.
type Listener func(ctx context.Context, state session.ConnectionState)

// Options configures a Monitor.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Monitor probes the transport on a coarse cadence and reports state flips.
type Monitor struct {
	prober Prober
	sess   *session.Session
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	listeners []Listener
	lastProbe time.Time
	probed    bool
	trigger   bool
	now       func() time.Time
}

// New returns a Monitor that stores state in sess.
func New(prober Prober, sess *session.Session, opts Options, logger *slog.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Monitor{
		prober: prober,
		sess:   sess,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "monitor"),
		now:    time.Now,
	}
}

// SetNowFunc overrides the cadence clock (tests).
func (m *Monitor) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	m.now = now
}

// OnTransition registers fn for every state flip.
func (m *Monitor) OnTransition(fn Listener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// State returns the last known state.
func (m *Monitor) State() session.ConnectionState {
	return m.sess.Connection()
}

// Trigger requests a probe on the next Poll regardless of cadence.
func (m *Monitor) Trigger() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trigger = true
}

// Due reports whether Poll would probe now.
func (m *Monitor) Due() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dueLocked()
}

// dueLocked reports whether the cadence elapsed or a probe was requested.
func (m *Monitor) dueLocked() bool {
	return !m.probed || m.trigger || m.now().Sub(m.lastProbe) >= m.opts.Interval
}

// Poll probes when due and returns the current state.
func (m *Monitor) Poll(ctx context.Context) session.ConnectionState {
	if !m.Due() {
		return m.State()
	}
	return m.Probe(ctx)
}

// Probe runs one bounded reachability check. Errors and timeouts count as Disconnected.
func (m *Monitor) Probe(ctx context.Context) session.ConnectionState {
	m.mu.Lock()
	m.lastProbe = m.now()
	m.probed = true
	m.trigger = false
	m.mu.Unlock()

	pctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	ok, err := m.prober.ListDevices(pctx)
	cancel()
	state := session.Disconnected
	if err != nil {
		m.logger.Debug("probe failed", logging.Error(err))
	} else if ok {
		state = session.Connected
	}
	m.apply(ctx, state, "probe")
	return state
}

// MarkDisconnected records a disconnect observed outside a probe, such as a failed pull.
func (m *Monitor) MarkDisconnected(ctx context.Context, reason string) {
	m.apply(ctx, session.Disconnected, reason)
}

// apply stores state and notifies listeners only when it changed.
func (m *Monitor) apply(ctx context.Context, state session.ConnectionState, reason string) {
	if !m.sess.SetConnection(state) {
		return
	}
	m.logger.Info("device state changed",
		logging.String("state", state.String()),
		logging.String("reason", reason))

	m.mu.Lock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(ctx, state)
	}
}
