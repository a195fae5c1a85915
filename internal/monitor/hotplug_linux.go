//go:build linux

// Package monitor tracks device reachability and reports debounced transitions.
package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"github.com/frudas24/devmirror/internal/logging"
)

// Hotplug listens for USB uevents and asks the monitor for an early probe.
type Hotplug struct {
	target  *Monitor
	logger  *slog.Logger
	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewHotplug returns a listener that triggers target.
func NewHotplug(target *Monitor, logger *slog.Logger) *Hotplug {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hotplug{target: target, logger: logging.NewComponentLogger(logger, "hotplug")}
}

// Start opens the netlink socket. Failure is logged and leaves polling as the only signal.
func (h *Hotplug) Start(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		h.logger.Warn("netlink unavailable; relying on periodic probes", logging.Error(err))
		return nil
	}
	h.conn = conn
	h.quit = make(chan struct{})
	h.running = true

	quit := h.quit
	go h.loop(ctx, conn, quit)
	h.logger.Info("hotplug listener started")
	return nil
}

// Stop closes the netlink socket.
func (h *Hotplug) Stop() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	close(h.quit)
	h.quit = nil
	_ = h.conn.Close()
	h.conn = nil
	h.running = false
}

// Running reports whether the listener is active.
func (h *Hotplug) Running() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// loop forwards matched uevents until ctx or quit ends it.
func (h *Hotplug) loop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, usbMatcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case ev := <-queue:
			h.logger.Debug("usb event",
				logging.String("action", string(ev.Action)),
				logging.String("kobj", ev.KObj))
			h.target.Trigger()
		case err := <-errs:
			h.logger.Debug("netlink error", logging.Error(err))
		}
	}
}

// usbMatcher matches add and remove events on the usb subsystem.
func usbMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": "usb"},
	})
	return rules
}
