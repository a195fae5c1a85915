package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frudas24/devmirror/internal/pixel"
)

// isolate points DATA_DIR at an empty temp dir so a developer .env is never read.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DEVMIRROR_DATA_DIR", dir)
	return dir
}

// TestLoad_Defaults verifies defaults match the reference device geometry.
func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DeviceWidth != 480 || cfg.DeviceHeight != 360 {
		t.Fatalf("unexpected device size %dx%d", cfg.DeviceWidth, cfg.DeviceHeight)
	}
	if cfg.CanvasWidth() != 360 || cfg.CanvasHeight() != 270 {
		t.Fatalf("unexpected canvas %dx%d", cfg.CanvasWidth(), cfg.CanvasHeight())
	}
	if cfg.PacingInterval().Milliseconds() != 100 {
		t.Fatalf("unexpected pacing %s", cfg.PacingInterval())
	}
	if cfg.PixelProfile != "BGRA8888" {
		t.Fatalf("unexpected profile %q", cfg.PixelProfile)
	}
}

// TestLoad_YAMLFile verifies YAML values override defaults.
func TestLoad_YAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "devmirror.yaml")
	data := "pixel_profile: Auto\ndisplay_scale: 1\nlauncher_markers: [\".launcher\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PixelProfile != "Auto" || cfg.CanvasWidth() != 480 {
		t.Fatalf("unexpected cfg: profile=%q canvas=%d", cfg.PixelProfile, cfg.CanvasWidth())
	}
	if len(cfg.LauncherMarkers) != 1 || cfg.LauncherMarkers[0] != ".launcher" {
		t.Fatalf("unexpected markers %v", cfg.LauncherMarkers)
	}
}

// TestLoad_TOMLFile verifies TOML files are decoded by extension.
func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "devmirror.toml")
	data := "pull_mode = \"exec-out\"\npull_compression = \"gzip\"\npacing_interval_ms = 250\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PullMode != PullModeExecOut || cfg.PullCompression != CompressionGzip || cfg.PacingIntervalMs != 250 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

// TestLoad_EnvOverridesFile verifies environment variables win over the file.
func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "devmirror.yaml")
	if err := os.WriteFile(path, []byte("jpeg_quality: 50\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DEVMIRROR_JPEG_QUALITY", "90")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JPEGQuality != 90 {
		t.Fatalf("expected env override 90, got %d", cfg.JPEGQuality)
	}
}

// TestLoad_RejectsUnknownProfile verifies profile validation.
func TestLoad_RejectsUnknownProfile(t *testing.T) {
	isolate(t)
	t.Setenv("DEVMIRROR_PIXEL_PROFILE", "YUV420")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error")
	}
}

// TestValidate_AcceptsEveryPixelProfile verifies validation tracks the pixel decoders.
func TestValidate_AcceptsEveryPixelProfile(t *testing.T) {
	names := []string{pixel.Auto.String(), "rgb565"}
	for _, p := range pixel.Profiles {
		names = append(names, p.String())
	}
	for _, name := range names {
		cfg := Default()
		cfg.PixelProfile = name
		if err := cfg.Validate(); err != nil {
			t.Fatalf("profile %q rejected: %v", name, err)
		}
	}
	cfg := Default()
	cfg.PixelProfile = "YUV420"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "pixel_profile") {
		t.Fatalf("expected pixel_profile error, got %v", err)
	}
}

// TestLoad_RejectsGzipWithPull verifies compression requires exec-out.
func TestLoad_RejectsGzipWithPull(t *testing.T) {
	isolate(t)
	t.Setenv("DEVMIRROR_PULL_COMPRESSION", "gzip")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error")
	}
}

// TestLoad_BadInteger verifies integer parse errors surface.
func TestLoad_BadInteger(t *testing.T) {
	isolate(t)
	t.Setenv("DEVMIRROR_PACING_INTERVAL_MS", "fast")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected parse error")
	}
}

// TestParseEnvLine verifies .env parsing rules.
func TestParseEnvLine(t *testing.T) {
	key, value, ok := parseEnvLine(`export DEVMIRROR_ADB_SERIAL="abc123"`)
	if !ok || key != "DEVMIRROR_ADB_SERIAL" || value != "abc123" {
		t.Fatalf("unexpected parse: %q %q %v", key, value, ok)
	}
	if _, _, ok := parseEnvLine("# comment"); ok {
		t.Fatalf("expected comment to be skipped")
	}
	if _, _, ok := parseEnvLine("novalue"); ok {
		t.Fatalf("expected line without '=' to be skipped")
	}
}
