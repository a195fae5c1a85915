//go:build !windows

// Package adb drives a device through the adb executable.
package adb

import "os/exec"

// configureCmd is a no-op outside Windows.
func configureCmd(cmd *exec.Cmd) {
	_ = cmd
}
