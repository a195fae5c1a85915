// Package webrtc publishes mirrored frames and receives input over WebRTC data channels.
package webrtc

import "sync/atomic"

// debugFrames controls whether per-frame send logs are emitted.
var debugFrames atomic.Bool

// SetDebugLogging enables/disables verbose per-frame logs.
func SetDebugLogging(enabled bool) {
	debugFrames.Store(enabled)
}

// debugFramesEnabled reports whether per-frame logs are enabled.
func debugFramesEnabled() bool {
	return debugFrames.Load()
}
