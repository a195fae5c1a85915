// Package config loads runtime configuration for DevMirror.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv overlays DEVMIRROR_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	var err error
	ints := []struct {
		key string
		dst *int
	}{
		{"DEVICE_WIDTH", &cfg.DeviceWidth},
		{"DEVICE_HEIGHT", &cfg.DeviceHeight},
		{"NAV_BAR_HEIGHT", &cfg.NavBarHeight},
		{"PACING_INTERVAL_MS", &cfg.PacingIntervalMs},
		{"FOLLOWUP_REFRESH_MS", &cfg.FollowupRefreshMs},
		{"APP_POLL_INTERVAL_S", &cfg.AppPollIntervalS},
		{"CONNECTION_POLL_INTERVAL_S", &cfg.ConnPollIntervalS},
		{"PROBE_TIMEOUT_S", &cfg.ProbeTimeoutS},
		{"DISCONNECTED_POLL_MS", &cfg.DisconnectedPollMs},
		{"FAILURE_BACKOFF_MS", &cfg.FailureBackoffMs},
		{"STATUS_BAR_LUMINANCE_THRESHOLD", &cfg.LuminanceThreshold},
		{"STATUS_BAR_CROP_ROWS", &cfg.StatusBarCropRows},
		{"PULL_TIMEOUT_S", &cfg.PullTimeoutS},
		{"JPEG_QUALITY", &cfg.JPEGQuality},
		{"MJPEG_INTERVAL_MS", &cfg.MJPEGIntervalMs},
	}
	for _, item := range ints {
		if *item.dst, err = envInt(item.key, *item.dst); err != nil {
			return err
		}
	}

	if cfg.DisplayScale, err = envFloat("DISPLAY_SCALE", cfg.DisplayScale); err != nil {
		return err
	}

	cfg.HomePackage = envString("HOME_PACKAGE", cfg.HomePackage)
	cfg.PixelProfile = envString("PIXEL_PROFILE", cfg.PixelProfile)
	cfg.FramebufferPath = envString("FRAMEBUFFER_PATH", cfg.FramebufferPath)
	cfg.PullMode = envString("PULL_MODE", cfg.PullMode)
	cfg.PullCompression = envString("PULL_COMPRESSION", cfg.PullCompression)
	cfg.ADBPath = envString("ADB_PATH", cfg.ADBPath)
	cfg.ADBSerial = envString("ADB_SERIAL", cfg.ADBSerial)
	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.UIPassword = envString("UI_PASSWORD", cfg.UIPassword)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envString("LOG_FORMAT", cfg.LogFormat)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.Window = envBool("WINDOW", cfg.Window)
	cfg.Hotplug = envBool("HOTPLUG", cfg.Hotplug)
	if raw := envString("LAUNCHER_MARKERS", ""); raw != "" {
		cfg.LauncherMarkers = strings.Split(raw, ",")
	}
	return nil
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := envString(key, "")
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be an integer: %w", envPrefix, key, err)
	}
	return value, nil
}

// envFloat returns a float env override when present, otherwise a default.
func envFloat(key string, def float64) (float64, error) {
	raw := envString(key, "")
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be a number: %w", envPrefix, key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) bool {
	raw := envString(key, "")
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.Trim(strings.TrimSpace(value), `"'`), true
}
