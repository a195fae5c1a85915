//go:build !linux

// Package monitor tracks device reachability and reports debounced transitions.
package monitor

import (
	"context"
	"log/slog"
)

// Hotplug is inert outside Linux.
type Hotplug struct{}

// NewHotplug returns an inert listener.
func NewHotplug(_ *Monitor, _ *slog.Logger) *Hotplug {
	return &Hotplug{}
}

// Start is a no-op outside Linux.
func (h *Hotplug) Start(context.Context) error {
	return nil
}

// Stop is a no-op outside Linux.
func (h *Hotplug) Stop() {}

// Running always reports false outside Linux.
func (h *Hotplug) Running() bool {
	return false
}
