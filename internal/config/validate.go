// Package config loads runtime configuration for DevMirror.
package config

import (
	"fmt"

	"github.com/frudas24/devmirror/internal/pixel"
)

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.DeviceWidth <= 0 || c.DeviceHeight <= 0 {
		return errInvalid("device_width/device_height", "must be > 0")
	}
	if c.DisplayScale <= 0 || c.DisplayScale > 4 {
		return errInvalid("display_scale", "must be in (0, 4]")
	}
	if c.CanvasWidth() <= 0 || c.CanvasHeight() <= 0 {
		return errInvalid("display_scale", "produces an empty canvas")
	}
	if c.NavBarHeight < 0 || c.NavBarHeight >= c.CanvasHeight() {
		return errInvalid("nav_bar_height", "must be >= 0 and smaller than the canvas")
	}
	if c.PacingIntervalMs < 0 {
		return errInvalid("pacing_interval_ms", "must be >= 0")
	}
	if c.FollowupRefreshMs < 0 {
		return errInvalid("followup_refresh_ms", "must be >= 0")
	}
	if c.ConnPollIntervalS <= 0 {
		return errInvalid("connection_poll_interval_s", "must be > 0")
	}
	if c.ProbeTimeoutS <= 0 {
		return errInvalid("probe_timeout_s", "must be > 0")
	}
	if c.DisconnectedPollMs <= 0 {
		return errInvalid("disconnected_poll_ms", "must be > 0")
	}
	if c.FailureBackoffMs < 0 {
		return errInvalid("failure_backoff_ms", "must be >= 0")
	}
	if c.AppPollIntervalS <= 0 {
		return errInvalid("app_poll_interval_s", "must be > 0")
	}
	if _, err := pixel.ParseProfile(c.PixelProfile); err != nil {
		return fmt.Errorf("pixel_profile: %w", err)
	}
	if c.StatusBarCropRows < 0 || c.StatusBarCropRows >= c.DeviceHeight {
		return errInvalid("status_bar_crop_rows", "must be >= 0 and smaller than device_height")
	}
	if c.LuminanceThreshold < 0 || c.LuminanceThreshold > 255 {
		return errInvalid("status_bar_luminance_threshold", "must be 0-255")
	}
	if c.FramebufferPath == "" {
		return errInvalid("framebuffer_path", "is required")
	}
	switch c.PullMode {
	case PullModePull, PullModeExecOut:
	default:
		return fmt.Errorf("pull_mode must be %q or %q", PullModePull, PullModeExecOut)
	}
	switch c.PullCompression {
	case CompressionNone:
	case CompressionGzip:
		if c.PullMode != PullModeExecOut {
			return errInvalid("pull_compression", "gzip requires pull_mode exec-out")
		}
	default:
		return fmt.Errorf("pull_compression must be %q or %q", CompressionNone, CompressionGzip)
	}
	if c.PullTimeoutS <= 0 {
		return errInvalid("pull_timeout_s", "must be > 0")
	}
	if c.ADBPath == "" {
		return errInvalid("adb_path", "is required")
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		return errInvalid("jpeg_quality", "must be 1-100")
	}
	if c.MJPEGIntervalMs < 0 {
		return errInvalid("mjpeg_interval_ms", "must be >= 0")
	}
	return nil
}
