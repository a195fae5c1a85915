// Package adb drives a device through the adb executable.
package adb

import (
	"context"
	"fmt"
	"strconv"
)

// Device wraps a Transport with the shell commands the mirror issues.
type Device struct {
	t Transport
}

// NewDevice returns a Device over t.
func NewDevice(t Transport) *Device {
	return &Device{t: t}
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.t
}

// KeyEvent injects one Android key code.
func (d *Device) KeyEvent(ctx context.Context, code int) Result {
	return d.t.Shell(ctx, "input", "keyevent", strconv.Itoa(code))
}

// Tap injects a touch at device coordinates.
func (d *Device) Tap(ctx context.Context, x, y int) Result {
	return d.t.Shell(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
}

// LaunchApp starts pkg through its launcher intent.
func (d *Device) LaunchApp(ctx context.Context, pkg string) Result {
	return d.t.Shell(ctx, "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
}

// ForceStop kills pkg.
func (d *Device) ForceStop(ctx context.Context, pkg string) Result {
	return d.t.Shell(ctx, "am", "force-stop", pkg)
}

// ForegroundPackage returns the resumed package, or "" when it cannot be determined.
func (d *Device) ForegroundPackage(ctx context.Context) (string, error) {
	res := d.t.Shell(ctx, "dumpsys", "activity", "activities")
	if res.OK {
		if pkg := ParseForeground(res.Stdout, "mResumedActivity"); pkg != "" {
			return pkg, nil
		}
	}
	alt := d.t.Shell(ctx, "dumpsys", "window", "windows")
	if !alt.OK {
		if !res.OK {
			return "", fmt.Errorf("dumpsys: %s", alt.Stderr)
		}
		return "", nil
	}
	return ParseForeground(alt.Stdout, "mCurrentFocus", "mFocusedApp"), nil
}

// ListPackages returns third-party package names.
func (d *Device) ListPackages(ctx context.Context) ([]string, error) {
	res := d.t.Shell(ctx, "pm", "list", "packages", "-3", "-f")
	if !res.OK {
		return nil, fmt.Errorf("pm list packages: %s", res.Stderr)
	}
	return ParsePackages(res.Stdout), nil
}

// HasPackage reports whether pkg is installed.
func (d *Device) HasPackage(ctx context.Context, pkg string) (bool, error) {
	res := d.t.Shell(ctx, "pm", "list", "packages", pkg)
	if !res.OK {
		return false, fmt.Errorf("pm list packages %s: %s", pkg, res.Stderr)
	}
	for _, name := range ParsePackages(res.Stdout) {
		if name == pkg {
			return true, nil
		}
	}
	return false, nil
}
