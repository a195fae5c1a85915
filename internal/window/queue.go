// Package window shows the mirrored screen in a desktop window and forwards local input.
package window

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frudas24/devmirror/internal/control"
	"github.com/frudas24/devmirror/internal/frame"
	"github.com/frudas24/devmirror/internal/logging"
)

// ErrUnavailable is returned by Run when the binary was built without window support.
var ErrUnavailable = errors.New("window support requires cgo")

// FrameSource provides the most recent rendered frame.
type FrameSource interface {
	Latest() (frame.Rendered, bool)
	Layout() frame.Layout
}

// Handler executes queued input. *control.Mapper satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev control.Event) control.Outcome
	Toggle() control.Outcome
}

// Action is one queued input: either an event or a mode toggle.
type Action struct {
	Event  control.Event
	Toggle bool
}

// Queue runs input actions on a worker goroutine so the draw loop never blocks on adb.
type Queue struct {
	ch      chan Action
	handler Handler
	logger  *slog.Logger
}

// NewQueue creates a queue with room for size pending actions.
func NewQueue(handler Handler, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 16
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{
		ch:      make(chan Action, size),
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "window"),
	}
}

// Push enqueues a without blocking and reports whether it was accepted.
func (q *Queue) Push(a Action) bool {
	select {
	case q.ch <- a:
		return true
	default:
		return false
	}
}

// Run drains the queue until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-q.ch:
			q.apply(ctx, a)
		}
	}
}

// apply executes one action.
func (q *Queue) apply(ctx context.Context, a Action) {
	var out control.Outcome
	if a.Toggle {
		out = q.handler.Toggle()
	} else {
		out = q.handler.Handle(ctx, a.Event)
	}
	if out.Err != nil {
		q.logger.Debug("input failed", logging.String("status", out.Status), logging.Error(out.Err))
	}
}
