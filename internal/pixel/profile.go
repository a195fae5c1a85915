// Package pixel decodes raw framebuffer bytes into RGB images.
package pixel

import (
	"fmt"
	"strings"
)

// Profile names a raw pixel byte layout.
type Profile int

const (
	// Auto picks a layout from the buffer length. It is never a decode result.
	Auto Profile = iota
	// RGBA8888 is 4 bytes per pixel, red first.
	RGBA8888
	// BGRA8888 is 4 bytes per pixel, blue first.
	BGRA8888
	// RGB888 is 3 bytes per pixel, red first.
	RGB888
	// BGR888 is 3 bytes per pixel, blue first.
	BGR888
	// RGB565 is a little-endian 16-bit word per pixel.
	RGB565
)

var profileNames = map[Profile]string{
	Auto:     "Auto",
	RGBA8888: "RGBA8888",
	BGRA8888: "BGRA8888",
	RGB888:   "RGB888",
	BGR888:   "BGR888",
	RGB565:   "RGB565",
}

// Profiles lists every concrete layout in preference order.
var Profiles = []Profile{RGBA8888, BGRA8888, RGB888, BGR888, RGB565}

// String returns the canonical profile name.
func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// BytesPerPixel returns the stored size of one pixel, or 0 for Auto.
func (p Profile) BytesPerPixel() int {
	switch p {
	case RGBA8888, BGRA8888:
		return 4
	case RGB888, BGR888:
		return 3
	case RGB565:
		return 2
	default:
		return 0
	}
}

// Swapped reports whether red and blue are stored in reverse order.
func (p Profile) Swapped() bool {
	return p == BGRA8888 || p == BGR888
}

// ExpectedSize returns the byte length of a w x h frame in this layout.
func (p Profile) ExpectedSize(w, h int) int {
	return p.BytesPerPixel() * w * h
}

// ParseProfile resolves a profile name case-insensitively.
func ParseProfile(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	for p, n := range profileNames {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	return Auto, fmt.Errorf("unknown pixel profile %q", name)
}
