// Package config loads runtime configuration for DevMirror.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	defaultDeviceWidth         = 480
	defaultDeviceHeight        = 360
	defaultDisplayScale        = 0.75
	defaultNavBarHeight        = 30
	defaultPacingMs            = 100
	defaultFollowupMs          = 100
	defaultConnPollS           = 5
	defaultProbeTimeoutS       = 3
	defaultDisconnectedPollMs  = 1000
	defaultFailureBackoffMs    = 500
	defaultAppPollS            = 5
	defaultPixelProfile        = "BGRA8888"
	defaultLuminanceThreshold  = 16
	defaultStatusBarRows       = 25
	defaultFramebufferPath     = "/dev/graphics/fb0"
	defaultPullMode            = PullModePull
	defaultPullCompression     = CompressionNone
	defaultPullTimeoutS        = 10
	defaultHomePackage         = "com.innioasis.y1"
	defaultListenAddr          = "127.0.0.1:8787"
	defaultJPEGQuality         = 80
	defaultDataDir             = "./data"
	defaultLogLevel            = "info"
	defaultLogFormat           = "auto"
	envPrefix                  = "DEVMIRROR_"
	bundledADBDir              = "platform-tools"
	fallbackADBExecutable      = "adb"
	windowsADBExecutableSuffix = ".exe"
)

// Pull modes select how the framebuffer is transferred.
const (
	PullModePull    = "pull"
	PullModeExecOut = "exec-out"
)

// Compression settings for exec-out pulls.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
)

// Config holds runtime configuration values.
type Config struct {
	DeviceWidth  int     `yaml:"device_width" toml:"device_width"`
	DeviceHeight int     `yaml:"device_height" toml:"device_height"`
	DisplayScale float64 `yaml:"display_scale" toml:"display_scale"`
	NavBarHeight int     `yaml:"nav_bar_height" toml:"nav_bar_height"`

	PacingIntervalMs   int      `yaml:"pacing_interval_ms" toml:"pacing_interval_ms"`
	FollowupRefreshMs  int      `yaml:"followup_refresh_ms" toml:"followup_refresh_ms"`
	HomePackage        string   `yaml:"home_package" toml:"home_package"`
	LauncherMarkers    []string `yaml:"launcher_markers" toml:"launcher_markers"`
	AppPollIntervalS   int      `yaml:"app_poll_interval_s" toml:"app_poll_interval_s"`
	ConnPollIntervalS  int      `yaml:"connection_poll_interval_s" toml:"connection_poll_interval_s"`
	ProbeTimeoutS      int      `yaml:"probe_timeout_s" toml:"probe_timeout_s"`
	DisconnectedPollMs int      `yaml:"disconnected_poll_ms" toml:"disconnected_poll_ms"`
	FailureBackoffMs   int      `yaml:"failure_backoff_ms" toml:"failure_backoff_ms"`
	Hotplug            bool     `yaml:"hotplug" toml:"hotplug"`

	PixelProfile       string `yaml:"pixel_profile" toml:"pixel_profile"`
	LuminanceThreshold int    `yaml:"status_bar_luminance_threshold" toml:"status_bar_luminance_threshold"`
	StatusBarCropRows  int    `yaml:"status_bar_crop_rows" toml:"status_bar_crop_rows"`
	FramebufferPath    string `yaml:"framebuffer_path" toml:"framebuffer_path"`
	PullMode           string `yaml:"pull_mode" toml:"pull_mode"`
	PullCompression    string `yaml:"pull_compression" toml:"pull_compression"`
	PullTimeoutS       int    `yaml:"pull_timeout_s" toml:"pull_timeout_s"`
	ADBPath            string `yaml:"adb_path" toml:"adb_path"`
	ADBSerial          string `yaml:"adb_serial" toml:"adb_serial"`

	ListenAddr      string `yaml:"listen_addr" toml:"listen_addr"`
	UIPassword      string `yaml:"ui_password" toml:"ui_password"`
	JPEGQuality     int    `yaml:"jpeg_quality" toml:"jpeg_quality"`
	MJPEGIntervalMs int    `yaml:"mjpeg_interval_ms" toml:"mjpeg_interval_ms"`
	Window          bool   `yaml:"window" toml:"window"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`
	DataDir   string `yaml:"data_dir" toml:"data_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DeviceWidth:        defaultDeviceWidth,
		DeviceHeight:       defaultDeviceHeight,
		DisplayScale:       defaultDisplayScale,
		NavBarHeight:       defaultNavBarHeight,
		PacingIntervalMs:   defaultPacingMs,
		FollowupRefreshMs:  defaultFollowupMs,
		HomePackage:        defaultHomePackage,
		LauncherMarkers:    []string{".y1", ".y1app"},
		AppPollIntervalS:   defaultAppPollS,
		ConnPollIntervalS:  defaultConnPollS,
		ProbeTimeoutS:      defaultProbeTimeoutS,
		DisconnectedPollMs: defaultDisconnectedPollMs,
		FailureBackoffMs:   defaultFailureBackoffMs,
		Hotplug:            true,
		PixelProfile:       defaultPixelProfile,
		LuminanceThreshold: defaultLuminanceThreshold,
		StatusBarCropRows:  defaultStatusBarRows,
		FramebufferPath:    defaultFramebufferPath,
		PullMode:           defaultPullMode,
		PullCompression:    defaultPullCompression,
		PullTimeoutS:       defaultPullTimeoutS,
		ADBPath:            defaultADBPath(),
		ListenAddr:         defaultListenAddr,
		JPEGQuality:        defaultJPEGQuality,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		DataDir:            defaultDataDir,
	}
}

// Load reads defaults, an optional config file, ./data/.env and environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	dataDir := envString("DATA_DIR", cfg.DataDir)
	if err := loadEnvFile(filepath.Join(dataDir, ".env")); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CanvasWidth returns the fixed render width in pixels.
func (c Config) CanvasWidth() int {
	return int(float64(c.DeviceWidth) * c.DisplayScale)
}

// CanvasHeight returns the fixed render height in pixels.
func (c Config) CanvasHeight() int {
	return int(float64(c.DeviceHeight) * c.DisplayScale)
}

// PacingInterval returns the minimum gap between accepted input events.
func (c Config) PacingInterval() time.Duration {
	return time.Duration(c.PacingIntervalMs) * time.Millisecond
}

// FollowupRefresh returns the delay of the second post-input refresh.
func (c Config) FollowupRefresh() time.Duration {
	return time.Duration(c.FollowupRefreshMs) * time.Millisecond
}

// ConnectionPollInterval returns the Connection Monitor cadence.
func (c Config) ConnectionPollInterval() time.Duration {
	return time.Duration(c.ConnPollIntervalS) * time.Second
}

// ProbeTimeout bounds one reachability probe.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutS) * time.Second
}

// DisconnectedPoll returns the loop cadence while disconnected.
func (c Config) DisconnectedPoll() time.Duration {
	return time.Duration(c.DisconnectedPollMs) * time.Millisecond
}

// FailureBackoff returns the pause after a failed pull.
func (c Config) FailureBackoff() time.Duration {
	return time.Duration(c.FailureBackoffMs) * time.Millisecond
}

// AppPollInterval returns the foreground application poll cadence.
func (c Config) AppPollInterval() time.Duration {
	return time.Duration(c.AppPollIntervalS) * time.Second
}

// PullTimeout bounds one framebuffer transfer.
func (c Config) PullTimeout() time.Duration {
	return time.Duration(c.PullTimeoutS) * time.Second
}

// LockPath returns the single-instance lock file location.
func (c Config) LockPath() string {
	return filepath.Join(c.DataDir, "devmirror.lock")
}

// loadFile decodes a YAML or TOML file over cfg, choosing by extension.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
	return nil
}

// normalize trims and lowercases enumerated values.
func (c *Config) normalize() {
	c.PixelProfile = strings.TrimSpace(c.PixelProfile)
	c.PullMode = strings.ToLower(strings.TrimSpace(c.PullMode))
	c.PullCompression = strings.ToLower(strings.TrimSpace(c.PullCompression))
	if c.PullCompression == "" {
		c.PullCompression = CompressionNone
	}
	c.HomePackage = strings.TrimSpace(c.HomePackage)
	markers := c.LauncherMarkers[:0]
	for _, m := range c.LauncherMarkers {
		if m = strings.TrimSpace(m); m != "" {
			markers = append(markers, m)
		}
	}
	c.LauncherMarkers = markers
}

// defaultADBPath prefers a bundled platform-tools binary over PATH lookup.
func defaultADBPath() string {
	name := fallbackADBExecutable
	if runtime.GOOS == "windows" {
		name += windowsADBExecutableSuffix
	}
	bundled := filepath.Join(bundledADBDir, name)
	if info, err := os.Stat(bundled); err == nil && !info.IsDir() {
		return bundled
	}
	return fallbackADBExecutable
}

// errInvalid builds a validation error for key.
func errInvalid(key, rule string) error {
	return errors.New(key + " " + rule)
}
