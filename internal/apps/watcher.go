// Package apps tracks the device's user packages, preparedness and foreground app.
package apps

import (
	"context"
	"log/slog"
	"time"

	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/session"
)

// ForegroundSource reports the resumed package, or "" when unknown.
type ForegroundSource interface {
	ForegroundPackage(ctx context.Context) (string, error)
}

// ForegroundSink consumes detected packages, typically the input mapper.
type ForegroundSink interface {
	ApplyForeground(pkg string) session.Mode
}

// Watcher polls the foreground package on a fixed cadence while connected.
type Watcher struct {
	src      ForegroundSource
	sink     ForegroundSink
	sess     *session.Session
	interval time.Duration
	logger   *slog.Logger
}

// NewWatcher returns a watcher feeding sink every interval.
func NewWatcher(src ForegroundSource, sink ForegroundSink, sess *session.Session, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{src: src, sink: sink, sess: sess, interval: interval, logger: logging.NewComponentLogger(logger, "apps")}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one detection when connected.
func (w *Watcher) Tick(ctx context.Context) {
	if w.sess.Connection() != session.Connected {
		return
	}
	pkg, err := w.src.ForegroundPackage(ctx)
	if err != nil {
		w.logger.Debug("foreground detection failed", logging.Error(err))
		pkg = ""
	}
	w.sink.ApplyForeground(pkg)
}
