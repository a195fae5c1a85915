//go:build windows

// Package adb drives a device through the adb executable.
package adb

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureCmd applies Windows-specific process settings.
func configureCmd(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
