// Package frame turns decoded device images into fixed-size canvas frames.
package frame

import (
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"
)

// Background pads the canvas around the scaled device image.
var Background = color.RGBA{A: 255}

// Processor crops, scales, centers and overlays decoded frames.
type Processor struct {
	layout Layout
	now    func() time.Time
}

// NewProcessor returns a processor for the given layout.
func NewProcessor(layout Layout) *Processor {
	return &Processor{layout: layout, now: time.Now}
}

// Layout returns the processor geometry.
func (p *Processor) Layout() Layout {
	return p.layout
}

// SetNowFunc overrides the capture clock (tests).
func (p *Processor) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	p.now = now
}

// Process renders src onto a new canvas and returns it with its geometry.
func (p *Processor) Process(src *image.RGBA) Rendered {
	l := p.layout
	cw, ch := l.CanvasWidth(), l.CanvasHeight()
	canvas := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	b := src.Bounds()
	crop := 0
	if p.hasStatusBar(src) {
		crop = l.CropRows
	}

	scaled := int(float64(b.Dy()-crop) * l.Scale)
	if scaled > ch {
		scaled = ch
	}
	if scaled < 0 {
		scaled = 0
	}
	yOff := (ch - scaled) / 2

	if scaled > 0 {
		srcRect := image.Rect(b.Min.X, b.Min.Y+crop, b.Max.X, b.Max.Y)
		dstRect := image.Rect(0, yOff, cw, yOff+scaled)
		draw.CatmullRom.Scale(canvas, dstRect, src, srcRect, draw.Src, nil)
	}
	DrawNavBar(canvas, l)

	return Rendered{
		Image:      canvas,
		Geometry:   Geometry{CropTop: crop, YOffset: yOff, ScaledHeight: scaled},
		CapturedAt: p.now(),
	}
}

// hasStatusBar reports whether the top crop rows are dark enough to drop.
func (p *Processor) hasStatusBar(src *image.RGBA) bool {
	rows := p.layout.CropRows
	if rows <= 0 || src.Bounds().Dy() <= 2*rows {
		return false
	}
	return MeanLuminance(src, rows) < p.layout.LuminanceThreshold
}

// MeanLuminance averages the R, G and B channels over the first rows of img.
func MeanLuminance(img *image.RGBA, rows int) float64 {
	b := img.Bounds()
	if rows > b.Dy() {
		rows = b.Dy()
	}
	if rows <= 0 || b.Dx() <= 0 {
		return 0
	}
	var sum uint64
	for y := b.Min.Y; y < b.Min.Y+rows; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+4*b.Dx()]
		for i := 0; i < len(row); i += 4 {
			sum += uint64(row[i]) + uint64(row[i+1]) + uint64(row[i+2])
		}
	}
	return float64(sum) / float64(3*rows*b.Dx())
}
