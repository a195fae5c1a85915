// Package apps tracks the device's user packages, preparedness and foreground app.
package apps

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/session"
)

// DefaultExcluded lists launcher and system helper packages hidden from the inventory.
var DefaultExcluded = []string{
	"com.teslacoilsw.launcher",
	"com.android.launcher",
	"com.lge.launcher2",
	"com.sec.android.app.launcher",
	"com.miui.home",
	"com.innioasis.y1",
	"com.ayst.factorytest",
	"jp.ne.neko.freewing.KeyCodeDisp",
}

// Device is the package-query surface the inventory needs.
type Device interface {
	ListPackages(ctx context.Context) ([]string, error)
	HasPackage(ctx context.Context, pkg string) (bool, error)
}

// Inventory caches the user package list.
type Inventory struct {
	dev      Device
	excluded map[string]struct{}

	mu        sync.RWMutex
	pkgs      []string
	refreshed time.Time
}

// NewInventory returns an inventory that hides the excluded packages.
func NewInventory(dev Device, excluded []string) *Inventory {
	set := make(map[string]struct{}, len(excluded))
	for _, p := range excluded {
		set[p] = struct{}{}
	}
	return &Inventory{dev: dev, excluded: set}
}

// Refresh reloads the package list from the device.
func (i *Inventory) Refresh(ctx context.Context) error {
	all, err := i.dev.ListPackages(ctx)
	if err != nil {
		return err
	}
	pkgs := make([]string, 0, len(all))
	for _, p := range all {
		if _, skip := i.excluded[p]; skip {
			continue
		}
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)

	i.mu.Lock()
	i.pkgs = pkgs
	i.refreshed = time.Now()
	i.mu.Unlock()
	return nil
}

// Packages returns a sorted copy of the cached list.
func (i *Inventory) Packages() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]string(nil), i.pkgs...)
}

// Clear drops the cached list.
func (i *Inventory) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pkgs = nil
	i.refreshed = time.Time{}
}

// CheckPrepared reports whether homePkg is installed. Query failures yield Unknown.
func CheckPrepared(ctx context.Context, dev Device, homePkg string) session.Preparedness {
	ok, err := dev.HasPackage(ctx, homePkg)
	switch {
	case err != nil:
		return session.PreparednessUnknown
	case ok:
		return session.Prepared
	default:
		return session.Unprepared
	}
}

// Service runs the per-session work triggered by connection transitions.
type Service struct {
	dev     Device
	inv     *Inventory
	sess    *session.Session
	homePkg string
	logger  *slog.Logger
}

// NewService returns a service over dev.
func NewService(dev Device, inv *Inventory, sess *session.Session, homePkg string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{dev: dev, inv: inv, sess: sess, homePkg: homePkg, logger: logging.NewComponentLogger(logger, "apps")}
}

// Inventory returns the package cache.
func (s *Service) Inventory() *Inventory {
	return s.inv
}

// OnTransition refreshes the inventory and checks preparedness once per Connected
// session, and clears the cache on Disconnected.
func (s *Service) OnTransition(ctx context.Context, state session.ConnectionState) {
	if state != session.Connected {
		s.inv.Clear()
		s.sess.SetStatus("Device disconnected - please reconnect")
		return
	}
	s.sess.SetStatus("Device connected")
	if err := s.inv.Refresh(ctx); err != nil {
		s.logger.Warn("package inventory refresh failed", logging.Error(err))
	}
	p := CheckPrepared(ctx, s.dev, s.homePkg)
	s.sess.SetPreparedness(p)
	if p == session.Unprepared && s.sess.MarkPromptShown() {
		s.sess.SetStatus("Device is not prepared: " + s.homePkg + " is missing")
		s.logger.Info("device not prepared", logging.String("home_package", s.homePkg))
	}
}
