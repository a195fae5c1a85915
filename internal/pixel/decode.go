// Package pixel decodes raw framebuffer bytes into RGB images.
package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrShortBuffer reports fewer bytes than the layout needs.
	ErrShortBuffer = errors.New("pixel: buffer shorter than layout")
	// ErrNoCandidate reports that Auto found no layout for the buffer length.
	ErrNoCandidate = errors.New("pixel: no candidate layout")
	// ErrDimensions reports a non-positive frame size.
	ErrDimensions = errors.New("pixel: invalid dimensions")
)

// ErrorColor fills frames that could not be decoded.
var ErrorColor = color.RGBA{R: 255, A: 255}

// Result is the outcome of one decode attempt.
type Result struct {
	Image   *image.RGBA
	Profile Profile
	Err     error
}

// OK reports whether the decode produced real pixels.
func (r Result) OK() bool {
	return r.Err == nil
}

// Decoder converts a raw buffer of a fixed layout into an opaque RGB image.
type Decoder func(data []byte, w, h int) (*image.RGBA, error)

// Candidate pairs a layout with its decoder.
type Candidate struct {
	Profile Profile
	Decode  Decoder
}

// Decode converts data into a w x h image. A failed decode still returns an
// image: the solid ErrorColor frame, with Err describing the failure.
func Decode(data []byte, profile Profile, w, h int) Result {
	if w <= 0 || h <= 0 {
		return Result{Image: ErrorFrame(1, 1), Profile: profile, Err: ErrDimensions}
	}

	var candidates []Candidate
	if profile == Auto {
		candidates = Candidates(len(data), w, h)
	} else {
		candidates = []Candidate{candidateFor(profile)}
	}
	if len(candidates) == 0 {
		return Result{Image: ErrorFrame(w, h), Profile: profile, Err: ErrNoCandidate}
	}

	var lastErr error
	for _, c := range candidates {
		if c.Decode == nil {
			lastErr = fmt.Errorf("pixel: unsupported profile %s", c.Profile)
			continue
		}
		img, err := c.Decode(data, w, h)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", c.Profile, err)
			continue
		}
		return Result{Image: img, Profile: c.Profile}
	}
	return Result{Image: ErrorFrame(w, h), Profile: profile, Err: lastErr}
}

// Candidates returns the ordered layouts Auto tries for a buffer of length n.
// Only the largest bytes-per-pixel class that fits is offered, straight order first.
func Candidates(n, w, h int) []Candidate {
	pixels := w * h
	switch {
	case pixels <= 0:
		return nil
	case n >= 4*pixels:
		return []Candidate{candidateFor(RGBA8888), candidateFor(BGRA8888)}
	case n >= 3*pixels:
		return []Candidate{candidateFor(RGB888), candidateFor(BGR888)}
	case n >= 2*pixels:
		return []Candidate{candidateFor(RGB565)}
	default:
		return nil
	}
}

// ErrorFrame returns a solid ErrorColor image of the given size.
func ErrorFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = ErrorColor.R
		img.Pix[i+1] = ErrorColor.G
		img.Pix[i+2] = ErrorColor.B
		img.Pix[i+3] = ErrorColor.A
	}
	return img
}

// candidateFor returns the decoder for a concrete profile.
func candidateFor(p Profile) Candidate {
	switch p {
	case RGBA8888:
		return Candidate{Profile: p, Decode: decode8888}
	case BGRA8888:
		return Candidate{Profile: p, Decode: swapped(decode8888)}
	case RGB888:
		return Candidate{Profile: p, Decode: decode888}
	case BGR888:
		return Candidate{Profile: p, Decode: swapped(decode888)}
	case RGB565:
		return Candidate{Profile: p, Decode: decode565}
	default:
		return Candidate{Profile: p}
	}
}

// decode8888 reads 4-byte pixels in R,G,B,A order and drops alpha.
func decode8888(data []byte, w, h int) (*image.RGBA, error) {
	need := 4 * w * h
	if len(data) < need {
		return nil, ErrShortBuffer
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, data[:need])
	for i := 3; i < need; i += 4 {
		img.Pix[i] = 0xFF
	}
	return img, nil
}

// decode888 reads packed 3-byte pixels in R,G,B order.
func decode888(data []byte, w, h int) (*image.RGBA, error) {
	n := w * h
	if len(data) < 3*n {
		return nil, ErrShortBuffer
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < n; i++ {
		s, d := i*3, i*4
		img.Pix[d+0] = data[s+0]
		img.Pix[d+1] = data[s+1]
		img.Pix[d+2] = data[s+2]
		img.Pix[d+3] = 0xFF
	}
	return img, nil
}

// decode565 unpacks little-endian 5/6/5 words, shifting each field to 8 bits.
func decode565(data []byte, w, h int) (*image.RGBA, error) {
	n := w * h
	if len(data) < 2*n {
		return nil, ErrShortBuffer
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < n; i++ {
		p := uint16(data[2*i]) | uint16(data[2*i+1])<<8
		d := i * 4
		img.Pix[d+0] = uint8((p>>11)&0x1F) << 3
		img.Pix[d+1] = uint8((p>>5)&0x3F) << 2
		img.Pix[d+2] = uint8(p&0x1F) << 3
		img.Pix[d+3] = 0xFF
	}
	return img, nil
}

// swapped wraps a straight-order decoder and exchanges red and blue afterwards.
func swapped(dec Decoder) Decoder {
	return func(data []byte, w, h int) (*image.RGBA, error) {
		img, err := dec(data, w, h)
		if err != nil {
			return nil, err
		}
		for i := 0; i+2 < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
		return img, nil
	}
}
