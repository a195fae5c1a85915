// Package app wires the device pipeline, input mapping and viewer surfaces together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frudas24/devmirror/internal/adb"
	"github.com/frudas24/devmirror/internal/apps"
	"github.com/frudas24/devmirror/internal/capture"
	"github.com/frudas24/devmirror/internal/config"
	"github.com/frudas24/devmirror/internal/control"
	"github.com/frudas24/devmirror/internal/frame"
	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/mjpeg"
	"github.com/frudas24/devmirror/internal/monitor"
	"github.com/frudas24/devmirror/internal/pixel"
	"github.com/frudas24/devmirror/internal/session"
	"github.com/frudas24/devmirror/internal/signaling"
	"github.com/frudas24/devmirror/internal/webrtc"
)

// App coordinates the acquisition loop, the input mapper and the HTTP surfaces.
type App struct {
	cfg       config.Config
	logger    *slog.Logger
	session   *session.Session
	transport adb.Transport
	device    *adb.Device
	monitor   *monitor.Monitor
	hotplug   *monitor.Hotplug
	handoff   *capture.Handoff
	acquirer  *capture.Acquirer
	mapper    *control.Mapper
	router    *control.Router
	control   *control.Server
	apps      *apps.Service
	watcher   *apps.Watcher
	stream    *mjpeg.Stream
	publisher *webrtc.Publisher
	signaling *signaling.Server

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New creates an application backed by the adb executable.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	client := adb.NewClient(adb.Options{
		Path:           cfg.ADBPath,
		Serial:         cfg.ADBSerial,
		CommandTimeout: cfg.ProbeTimeout(),
		PullTimeout:    cfg.PullTimeout(),
		PullMode:       cfg.PullMode,
		Compression:    cfg.PullCompression,
	}, logger)
	return NewWithTransport(cfg, client, logger)
}

// NewWithTransport creates an application over an arbitrary transport.
func NewWithTransport(cfg config.Config, transport adb.Transport, logger *slog.Logger) (*App, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	profile, err := pixel.ParseProfile(cfg.PixelProfile)
	if err != nil {
		return nil, fmt.Errorf("pixel profile: %w", err)
	}

	layout := frame.Layout{
		DeviceWidth:        cfg.DeviceWidth,
		DeviceHeight:       cfg.DeviceHeight,
		Scale:              cfg.DisplayScale,
		NavBarHeight:       cfg.NavBarHeight,
		LuminanceThreshold: float64(cfg.LuminanceThreshold),
		CropRows:           cfg.StatusBarCropRows,
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		session:   session.New(cfg.UIPassword),
		transport: transport,
		device:    adb.NewDevice(transport),
		handoff:   capture.NewHandoff(layout),
		stream:    mjpeg.NewStream(time.Duration(cfg.MJPEGIntervalMs) * time.Millisecond),
	}

	a.monitor = monitor.New(transport, a.session, monitor.Options{
		Interval: cfg.ConnectionPollInterval(),
		Timeout:  cfg.ProbeTimeout(),
	}, logger)
	a.hotplug = monitor.NewHotplug(a.monitor, logger)

	a.acquirer = capture.NewAcquirer(transport, a.monitor, frame.NewProcessor(layout), a.handoff, capture.Options{
		FramebufferPath:  cfg.FramebufferPath,
		Profile:          profile,
		DisconnectedPoll: cfg.DisconnectedPoll(),
		FailureBackoff:   cfg.FailureBackoff(),
	}, logger)

	a.mapper = control.NewMapper(a.device, a.acquirer, a.handoff, a.session, control.Options{
		Layout:      layout,
		Pacing:      cfg.PacingInterval(),
		Followup:    cfg.FollowupRefresh(),
		HomePackage: cfg.HomePackage,
		Classifier:  control.SubstringClassifier{Markers: cfg.LauncherMarkers},
	}, logger)
	a.router = control.NewRouter(a.mapper, a.session)
	a.control = control.NewServer(a.session, a.router, logger)

	inv := apps.NewInventory(a.device, apps.DefaultExcluded)
	a.apps = apps.NewService(a.device, inv, a.session, cfg.HomePackage, logger)
	a.monitor.OnTransition(a.apps.OnTransition)
	a.watcher = apps.NewWatcher(a.device, a.mapper, a.session, cfg.AppPollInterval(), logger)

	a.publisher, err = webrtc.NewPublisher(a.router, logger)
	if err != nil {
		return nil, err
	}
	a.signaling = signaling.NewServer(a.publisher, signaling.ViewerReplace, a.session.IsAuthenticated, logger)
	return a, nil
}

// Start launches the background tasks. They stop when ctx is cancelled; Wait
// blocks until they have.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return errors.New("app already running")
	}
	a.running = true

	if a.cfg.Hotplug {
		if err := a.hotplug.Start(ctx); err != nil {
			a.logger.Warn("usb hotplug unavailable", logging.Error(err))
		}
	}

	a.spawn(func() {
		if err := a.acquirer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("acquisition loop stopped", logging.Error(err))
		}
	})
	a.spawn(func() { _ = a.watcher.Run(ctx) })
	a.spawn(func() { a.stream.Pump(ctx, a.handoff, a.cfg.JPEGQuality) })
	a.spawn(func() { a.publisher.Pump(ctx, a.handoff, a.cfg.JPEGQuality) })
	return nil
}

// Wait blocks until all background tasks have returned and releases peers.
func (a *App) Wait() {
	a.wg.Wait()
	a.hotplug.Stop()
	a.publisher.ClosePeer()
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// spawn runs fn on a tracked goroutine.
func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Session returns the shared session state.
func (a *App) Session() *session.Session {
	return a.session
}

// Handoff returns the latest-frame mailbox.
func (a *App) Handoff() *capture.Handoff {
	return a.handoff
}

// Mapper returns the input mapper.
func (a *App) Mapper() *control.Mapper {
	return a.mapper
}

// Stats returns acquisition counters.
func (a *App) Stats() capture.Stats {
	return a.acquirer.Stats()
}
