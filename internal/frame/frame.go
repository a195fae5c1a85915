// Package frame turns decoded device images into fixed-size canvas frames.
package frame

import (
	"image"
	"time"

	"github.com/frudas24/devmirror/internal/pixel"
)

// Layout is the fixed geometry shared by the post-processor and the input mapper.
type Layout struct {
	DeviceWidth        int
	DeviceHeight       int
	Scale              float64
	NavBarHeight       int
	LuminanceThreshold float64
	CropRows           int
}

// CanvasWidth returns the rendered frame width.
func (l Layout) CanvasWidth() int {
	return int(float64(l.DeviceWidth) * l.Scale)
}

// CanvasHeight returns the rendered frame height.
func (l Layout) CanvasHeight() int {
	return int(float64(l.DeviceHeight) * l.Scale)
}

// NavBarTop returns the first canvas row covered by the navigation band.
func (l Layout) NavBarTop() int {
	return l.CanvasHeight() - l.NavBarHeight
}

// Geometry is the per-frame triple needed to invert canvas coordinates.
type Geometry struct {
	CropTop      int
	YOffset      int
	ScaledHeight int
}

// Contains reports whether canvas row y lies inside the scaled device image.
func (g Geometry) Contains(y int) bool {
	return y >= g.YOffset && y < g.YOffset+g.ScaledHeight
}

// Rendered is a finished canvas frame. Each value owns its image.
type Rendered struct {
	Image       *image.RGBA
	Geometry    Geometry
	Placeholder bool
	// DecodeErr is set when the frame shows the error colour instead of device pixels.
	DecodeErr  error
	Profile    pixel.Profile
	CapturedAt time.Time
}

// NavZone identifies a half of the navigation band.
type NavZone int

const (
	// NavNone means the point is outside the band.
	NavNone NavZone = iota
	// NavBack is the left half.
	NavBack
	// NavHome is the right half.
	NavHome
)

// NavZoneAt classifies a canvas point against the navigation band.
func (l Layout) NavZoneAt(x, y int) NavZone {
	if l.NavBarHeight <= 0 || y < l.NavBarTop() || y >= l.CanvasHeight() {
		return NavNone
	}
	if x < l.CanvasWidth()/2 {
		return NavBack
	}
	return NavHome
}

// ToDevice inverts a canvas point into device coordinates. ok is false when
// the point falls outside the scaled image rows of g.
func (l Layout) ToDevice(g Geometry, x, y int) (dx, dy int, ok bool) {
	if !g.Contains(y) || x < 0 || x >= l.CanvasWidth() || l.Scale <= 0 {
		return 0, 0, false
	}
	dx = clamp(int(float64(x)/l.Scale), 0, l.DeviceWidth-1)
	dy = clamp(int(float64(y-g.YOffset)/l.Scale)+g.CropTop, 0, l.DeviceHeight-1)
	return dx, dy, true
}

// ToCanvas maps a device point forward into canvas coordinates.
func (l Layout) ToCanvas(g Geometry, dx, dy int) (x, y int) {
	x = int(float64(dx) * l.Scale)
	y = int(float64(dy-g.CropTop)*l.Scale) + g.YOffset
	return x, y
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
