//go:build tinygo || !cgo

// Package window shows the mirrored screen in a desktop window and forwards local input.
package window

import "context"

// Run reports that no window backend is compiled in.
func Run(context.Context, string, FrameSource, *Queue) error {
	return ErrUnavailable
}
