// Package frame turns decoded device images into fixed-size canvas frames.
package frame

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	navFill        = color.RGBA{A: 255}
	navIcon        = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	placeholderBG  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	placeholderInk = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// PlaceholderText is drawn under the cable icon while no device is attached.
const PlaceholderText = "Please connect your device"

// DrawNavBar paints the navigation band: a back ring on the left quarter and
// a home triangle on the right quarter.
func DrawNavBar(dst *image.RGBA, l Layout) {
	h := l.NavBarHeight
	if h <= 0 {
		return
	}
	w := l.CanvasWidth()
	top := l.NavBarTop()
	draw.Draw(dst, image.Rect(0, top, w, top+h), image.NewUniform(navFill), image.Point{}, draw.Src)

	r := h/2 - 2
	if r <= 0 {
		return
	}
	spacing := w / 4
	cy := top + h/2
	ring(dst, spacing, cy, r, 3, navIcon)
	triangle(dst, w-spacing, cy, r, navIcon)
}

// Placeholder renders the "no device" canvas for l.
func Placeholder(l Layout) *image.RGBA {
	w, h := l.CanvasWidth(), l.CanvasHeight()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBG), image.Point{}, draw.Src)

	icon := int(60 * l.Scale)
	ix := (w - icon) / 2
	iy := (h-icon)/2 - int(30*l.Scale)
	outline(img, image.Rect(ix, iy, ix+icon, iy+icon), 3, placeholderInk)
	for _, dy := range []int{icon / 4, icon / 2, 3 * icon / 4} {
		fill(img, image.Rect(ix+icon/6, iy+dy-1, ix+icon-icon/6, iy+dy+1), placeholderInk)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(placeholderInk), Face: face}
	tw := d.MeasureString(PlaceholderText).Round()
	d.Dot = fixed.P((w-tw)/2, iy+icon+int(20*l.Scale)+face.Ascent)
	d.DrawString(PlaceholderText)
	return img
}

// fill paints r clipped to dst.
func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// outline paints a rectangle border of the given width.
func outline(dst *image.RGBA, r image.Rectangle, width int, c color.RGBA) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// ring paints a circle outline centred on (cx, cy).
func ring(dst *image.RGBA, cx, cy, r, width int, c color.RGBA) {
	outer := r * r
	inner := (r - width) * (r - width)
	if r <= width {
		inner = -1
	}
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			d := (x-cx)*(x-cx) + (y-cy)*(y-cy)
			if d <= outer && d > inner && (image.Point{X: x, Y: y}).In(dst.Bounds()) {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

// triangle paints a filled right-pointing triangle inscribed in the r box around (cx, cy).
func triangle(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		dy := y - cy
		if dy < 0 {
			dy = -dy
		}
		// width shrinks linearly from the base at cx-r to the apex at cx+r
		right := cx + r - dy*2
		for x := cx - r; x <= right; x++ {
			if (image.Point{X: x, Y: y}).In(dst.Bounds()) {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}
