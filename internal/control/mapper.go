// Package control translates viewer input into device key and touch commands.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frudas24/devmirror/internal/adb"
	"github.com/frudas24/devmirror/internal/frame"
	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/session"
)

// Dispatcher sends commands to the device.
type Dispatcher interface {
	KeyEvent(ctx context.Context, code int) adb.Result
	Tap(ctx context.Context, x, y int) adb.Result
	LaunchApp(ctx context.Context, pkg string) adb.Result
	ForceStop(ctx context.Context, pkg string) adb.Result
}

// Refresher re-acquires a frame outside the loop cadence.
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

// GeometrySource returns the geometry of the last produced frame.
type GeometrySource interface {
	Geometry() frame.Geometry
}

// Options configures a Mapper.
type Options struct {
	Layout      frame.Layout
	Pacing      time.Duration
	Followup    time.Duration
	HomePackage string
	Classifier  Classifier
}

// Outcome reports what happened to one event.
type Outcome struct {
	Command    Command
	Dispatched bool
	Dropped    bool
	Status     string
	Err        error
}

// Mapper owns interaction mode and pacing and turns events into device commands.
type Mapper struct {
	dev     Dispatcher
	refresh Refresher
	geom    GeometrySource
	sess    *session.Session
	pacer   *Pacer
	opts    Options
	logger  *slog.Logger
	after   func(d time.Duration, f func())
}

// NewMapper wires a mapper to its collaborators.
func NewMapper(dev Dispatcher, refresh Refresher, geom GeometrySource, sess *session.Session, opts Options, logger *slog.Logger) *Mapper {
	if opts.Classifier == nil {
		opts.Classifier = SubstringClassifier{Markers: []string{".y1", ".y1app"}}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Mapper{
		dev:     dev,
		refresh: refresh,
		geom:    geom,
		sess:    sess,
		pacer:   NewPacer(opts.Pacing),
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "control"),
		after:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Pacer exposes the rate limiter (tests inject a clock through it).
func (m *Mapper) Pacer() *Pacer {
	return m.pacer
}

// Mode returns the current interaction mode.
func (m *Mapper) Mode() session.Mode {
	return m.sess.Mode()
}

// Translate maps ev to a device command for the given mode and frame geometry.
// ok is false when the event maps to nothing, such as a tap on the padding.
func Translate(ev Event, mode session.Mode, l frame.Layout, g frame.Geometry) (Command, bool) {
	switch ev.Kind {
	case EventTap:
		switch l.NavZoneAt(ev.X, ev.Y) {
		case frame.NavBack:
			return Command{Type: CmdKey, Code: KeyBack, Label: "Back button (virtual nav bar)"}, true
		case frame.NavHome:
			return Command{Type: CmdKey, Code: KeyHome, Label: "Home button (virtual nav bar)"}, true
		}
		dx, dy, ok := l.ToDevice(g, ev.X, ev.Y)
		if !ok {
			return Command{}, false
		}
		if mode == session.LauncherControl {
			return Command{Type: CmdKey, Code: KeyEnter, Label: "Enter key"}, true
		}
		return Command{Type: CmdTap, X: dx, Y: dy, Label: fmt.Sprintf("Touch input to (%d, %d)", dx, dy)}, true
	case EventBack:
		return Command{Type: CmdKey, Code: KeyBack, Label: "Back button"}, true
	case EventWheel:
		in := IntentDown
		if ev.Dir == WheelUp {
			in = IntentUp
		}
		return keyCommand(in, mode)
	case EventWheelClick:
		return keyCommand(IntentCenter, mode)
	case EventKey:
		return keyCommand(ev.Key, mode)
	case EventMedia:
		code, label, ok := resolveMedia(ev.Media)
		if !ok {
			return Command{}, false
		}
		return Command{Type: CmdKey, Code: code, Label: label}, true
	default:
		return Command{}, false
	}
}

// keyCommand wraps resolveIntent into a Command.
func keyCommand(in Intent, mode session.Mode) (Command, bool) {
	code, label, ok := resolveIntent(in, mode)
	if !ok {
		return Command{}, false
	}
	return Command{Type: CmdKey, Code: code, Label: label}, true
}

// Handle paces, translates and dispatches ev, then refreshes the display.
func (m *Mapper) Handle(ctx context.Context, ev Event) Outcome {
	if !m.sess.InputEnabled() {
		return Outcome{Status: "Input disabled"}
	}
	if !m.pacer.Allow() {
		return Outcome{Dropped: true}
	}

	var g frame.Geometry
	if m.geom != nil {
		g = m.geom.Geometry()
	}
	cmd, ok := Translate(ev, m.sess.Mode(), m.opts.Layout, g)
	if !ok {
		return Outcome{}
	}

	var res adb.Result
	switch cmd.Type {
	case CmdTap:
		res = m.dev.Tap(ctx, cmd.X, cmd.Y)
	default:
		res = m.dev.KeyEvent(ctx, cmd.Code)
	}
	if !res.OK {
		return m.fail(cmd, res)
	}
	out := Outcome{Command: cmd, Dispatched: true, Status: cmd.Label + " sent"}
	m.sess.SetStatus(out.Status)
	m.kickRefresh(ctx)
	return out
}

// Toggle flips the interaction mode.
func (m *Mapper) Toggle() Outcome {
	mode := m.sess.ToggleMode()
	state := "disabled"
	if mode == session.LauncherControl {
		state = "enabled"
	}
	out := Outcome{Status: "Launcher control " + state}
	m.sess.SetStatus(out.Status)
	return out
}

// ApplyForeground forces the mode from the detected foreground package.
// An unknown package ("") forces Normal.
func (m *Mapper) ApplyForeground(pkg string) session.Mode {
	m.sess.SetForeground(pkg)
	mode := session.Normal
	if m.opts.Classifier.IsLauncher(pkg) {
		mode = session.LauncherControl
	}
	if prev := m.sess.Mode(); prev != mode {
		m.logger.Debug("mode forced by foreground app",
			logging.String("package", pkg),
			logging.String("mode", mode.String()))
	}
	m.sess.SetMode(mode)
	return mode
}

// LaunchApp starts pkg and forces Normal mode on success.
func (m *Mapper) LaunchApp(ctx context.Context, pkg string) Outcome {
	pkg = strings.TrimSpace(pkg)
	cmd := Command{Label: "Launch " + pkg}
	if pkg == "" {
		return Outcome{Command: cmd, Status: "No package given"}
	}
	res := m.dev.LaunchApp(ctx, pkg)
	if !res.OK {
		return m.fail(cmd, res)
	}
	m.sess.SetMode(session.Normal)
	m.sess.SetForeground(pkg)
	out := Outcome{Command: cmd, Dispatched: true, Status: "Launched " + pkg}
	m.sess.SetStatus(out.Status)
	m.kickRefresh(ctx)
	return out
}

// RestartHome force-stops and relaunches the home package and forces LauncherControl.
func (m *Mapper) RestartHome(ctx context.Context) Outcome {
	pkg := m.opts.HomePackage
	cmd := Command{Label: "Restart home app"}
	if pkg == "" {
		return Outcome{Command: cmd, Status: "No home package configured"}
	}
	m.dev.ForceStop(ctx, pkg)
	res := m.dev.LaunchApp(ctx, pkg)
	if !res.OK {
		return m.fail(cmd, res)
	}
	m.sess.SetMode(session.LauncherControl)
	m.sess.SetForeground(pkg)
	out := Outcome{Command: cmd, Dispatched: true, Status: "Home app restarted (" + pkg + ")"}
	m.sess.SetStatus(out.Status)
	m.kickRefresh(ctx)
	return out
}

// fail records a rejected command as a transient status.
func (m *Mapper) fail(cmd Command, res adb.Result) Outcome {
	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	status := cmd.Label + " failed"
	if detail != "" {
		status += ": " + detail
	}
	m.logger.Warn("command rejected", logging.String("command", cmd.Label), logging.String("detail", detail))
	m.sess.SetStatus(status)
	return Outcome{Command: cmd, Status: status, Err: fmt.Errorf("%s", status)}
}

// kickRefresh refreshes now and once more after the followup delay.
func (m *Mapper) kickRefresh(ctx context.Context) {
	if m.refresh == nil {
		return
	}
	_ = m.refresh.ForceRefresh(ctx)
	if m.opts.Followup <= 0 {
		return
	}
	bg := context.WithoutCancel(ctx)
	m.after(m.opts.Followup, func() { _ = m.refresh.ForceRefresh(bg) })
}
