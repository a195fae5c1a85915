// Package capture runs the framebuffer acquisition loop and hands frames to viewers.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frudas24/devmirror/internal/frame"
	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/pixel"
	"github.com/frudas24/devmirror/internal/session"
)

// ErrDisconnected reports a refresh requested while no device is reachable.
var ErrDisconnected = errors.New("capture: device disconnected")

// Puller fetches the raw framebuffer.
type Puller interface {
	Pull(ctx context.Context, remotePath string) ([]byte, error)
}

// Gate is the connection monitor as seen by the loop.
type Gate interface {
	Poll(ctx context.Context) session.ConnectionState
	State() session.ConnectionState
	MarkDisconnected(ctx context.Context, reason string)
}

// Options configures an Acquirer.
type Options struct {
	FramebufferPath  string
	Profile          pixel.Profile
	DisconnectedPoll time.Duration
	FailureBackoff   time.Duration
}

// Stats counts loop outcomes since start.
type Stats struct {
	Frames       uint64
	PullErrors   uint64
	DecodeErrors uint64
	LastProfile  pixel.Profile
}

// Acquirer owns the pull, decode, process and present sequence.
type Acquirer struct {
	src    Puller
	gate   Gate
	proc   *frame.Processor
	sink   Sink
	opts   Options
	logger *slog.Logger

	// pullMu keeps ForceRefresh from overlapping the loop's own pull and
	// guards placeholderShown.
	pullMu           sync.Mutex
	placeholderShown bool

	frames       atomic.Uint64
	pullErrors   atomic.Uint64
	decodeErrors atomic.Uint64
	lastProfile  atomic.Int32

	sleep func(ctx context.Context, d time.Duration)
}

// NewAcquirer wires a loop over the given collaborators.
func NewAcquirer(src Puller, gate Gate, proc *frame.Processor, sink Sink, opts Options, logger *slog.Logger) *Acquirer {
	if opts.FramebufferPath == "" {
		opts.FramebufferPath = "/dev/graphics/fb0"
	}
	if opts.DisconnectedPoll <= 0 {
		opts.DisconnectedPoll = time.Second
	}
	if opts.FailureBackoff <= 0 {
		opts.FailureBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Acquirer{
		src:    src,
		gate:   gate,
		proc:   proc,
		sink:   sink,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "capture"),
		sleep:  sleepCtx,
	}
}

// Run loops until ctx is cancelled. An in-flight pull is allowed to finish
// or time out on its own.
func (a *Acquirer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if a.gate.Poll(ctx) != session.Connected {
			a.pullMu.Lock()
			a.showPlaceholderLocked()
			a.pullMu.Unlock()
			a.sleep(ctx, a.opts.DisconnectedPoll)
			continue
		}

		a.pullMu.Lock()
		err := a.cycleLocked(ctx)
		a.pullMu.Unlock()
		if err != nil {
			a.sleep(ctx, a.opts.FailureBackoff)
		}
	}
}

// ForceRefresh runs one acquisition cycle outside the loop cadence. The
// connection is checked under the pull lock so a disconnect recorded by the
// loop is never painted over.
func (a *Acquirer) ForceRefresh(ctx context.Context) error {
	a.pullMu.Lock()
	defer a.pullMu.Unlock()
	if a.gate.State() != session.Connected {
		return ErrDisconnected
	}
	return a.cycleLocked(ctx)
}

// Stats returns a snapshot of the loop counters.
func (a *Acquirer) Stats() Stats {
	return Stats{
		Frames:       a.frames.Load(),
		PullErrors:   a.pullErrors.Load(),
		DecodeErrors: a.decodeErrors.Load(),
		LastProfile:  pixel.Profile(a.lastProfile.Load()),
	}
}

// cycleLocked pulls, decodes, processes and presents one frame. A failed
// pull marks the device disconnected and shows the placeholder. pullMu must be held.
func (a *Acquirer) cycleLocked(ctx context.Context) error {
	data, err := a.src.Pull(context.WithoutCancel(ctx), a.opts.FramebufferPath)
	if err != nil {
		a.pullErrors.Add(1)
		a.logger.Warn("framebuffer pull failed", logging.Error(err))
		a.gate.MarkDisconnected(ctx, "pull failed")
		a.showPlaceholderLocked()
		return err
	}
	l := a.proc.Layout()
	res := pixel.Decode(data, a.opts.Profile, l.DeviceWidth, l.DeviceHeight)
	if !res.OK() {
		a.decodeErrors.Add(1)
		a.logger.Debug("decode failed",
			logging.String("profile", a.opts.Profile.String()),
			logging.Int("bytes", len(data)),
			logging.Error(res.Err))
	} else {
		a.lastProfile.Store(int32(res.Profile))
	}

	r := a.proc.Process(res.Image)
	r.Profile = res.Profile
	r.DecodeErr = res.Err
	a.sink.Present(r)
	a.placeholderShown = false
	a.frames.Add(1)
	return nil
}

// showPlaceholderLocked presents the placeholder once per disconnect edge.
// pullMu must be held.
func (a *Acquirer) showPlaceholderLocked() {
	if a.placeholderShown {
		return
	}
	a.sink.PresentPlaceholder()
	a.placeholderShown = true
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
