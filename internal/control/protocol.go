// Package control translates viewer input into device key and touch commands.
package control

import "github.com/frudas24/devmirror/internal/frame"

// Message types accepted from viewers.
const (
	MsgTap          = "tap"
	MsgBack         = "back"
	MsgWheel        = "wheel"
	MsgWheelClick   = "wheelClick"
	MsgKey          = "key"
	MsgMedia        = "media"
	MsgToggleMode   = "toggleMode"
	MsgLaunch       = "launch"
	MsgHome         = "home"
	MsgInputEnabled = "inputEnabled"
	MsgStatus       = "status"
)

// Message is a control payload carried as JSON on the websocket and as CBOR
// on the WebRTC input channel. Tap coordinates are normalized to [0,1] of the canvas.
type Message struct {
	T       string  `json:"t" cbor:"t"`
	X       float64 `json:"x,omitempty" cbor:"x,omitempty"`
	Y       float64 `json:"y,omitempty" cbor:"y,omitempty"`
	Delta   int     `json:"delta,omitempty" cbor:"delta,omitempty"`
	Key     string  `json:"key,omitempty" cbor:"key,omitempty"`
	Media   string  `json:"media,omitempty" cbor:"media,omitempty"`
	Pkg     string  `json:"pkg,omitempty" cbor:"pkg,omitempty"`
	Text    string  `json:"text,omitempty" cbor:"text,omitempty"`
	Mode    string  `json:"mode,omitempty" cbor:"mode,omitempty"`
	Enabled *bool   `json:"enabled,omitempty" cbor:"enabled,omitempty"`
}

// ToEvent converts an input message into an Event on layout l.
// ok is false for non-event messages.
func (m Message) ToEvent(l frame.Layout) (Event, bool) {
	switch m.T {
	case MsgTap:
		return Tap(normToPixels(m.X, l.CanvasWidth()), normToPixels(m.Y, l.CanvasHeight())), true
	case MsgBack:
		return Back(), true
	case MsgWheel:
		if m.Delta == 0 {
			return Event{}, false
		}
		return Wheel(m.Delta), true
	case MsgWheelClick:
		return WheelClick(), true
	case MsgKey:
		return Key(Intent(m.Key)), true
	case MsgMedia:
		return Media(MediaKind(m.Media)), true
	default:
		return Event{}, false
	}
}

// normToPixels maps a normalized coordinate onto a span of pixels. Each
// pixel owns the interval [i/span, (i+1)/span).
func normToPixels(norm float64, span int) int {
	if span <= 1 {
		return 0
	}
	return min(int(clamp01(norm)*float64(span)), span-1)
}

// clamp01 bounds a float to the [0..1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
