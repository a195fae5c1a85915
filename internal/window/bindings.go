// Package window shows the mirrored screen in a desktop window and forwards local input.
package window

import "github.com/frudas24/devmirror/internal/control"

// Binding names a local key independent of the windowing backend.
type Binding int

const (
	BindNone Binding = iota
	BindUp
	BindDown
	BindLeft
	BindRight
	BindConfirm
	BindBack
	BindPlayPause
	BindNext
	BindPrevious
	BindToggle
)

// ActionFor returns the queued action for a pressed binding.
func ActionFor(b Binding) (Action, bool) {
	switch b {
	case BindUp:
		return Action{Event: control.Key(control.IntentUp)}, true
	case BindDown:
		return Action{Event: control.Key(control.IntentDown)}, true
	case BindLeft:
		return Action{Event: control.Key(control.IntentLeft)}, true
	case BindRight:
		return Action{Event: control.Key(control.IntentRight)}, true
	case BindConfirm:
		return Action{Event: control.Key(control.IntentCenter)}, true
	case BindBack:
		return Action{Event: control.Back()}, true
	case BindPlayPause:
		return Action{Event: control.Media(control.MediaPlayPause)}, true
	case BindNext:
		return Action{Event: control.Media(control.MediaNext)}, true
	case BindPrevious:
		return Action{Event: control.Media(control.MediaPrevious)}, true
	case BindToggle:
		return Action{Toggle: true}, true
	default:
		return Action{}, false
	}
}

// WheelSteps converts a wheel offset into whole steps, one event each.
func WheelSteps(dy float64) []control.Event {
	var out []control.Event
	for dy >= 1 {
		out = append(out, control.Wheel(1))
		dy--
	}
	for dy <= -1 {
		out = append(out, control.Wheel(-1))
		dy++
	}
	if len(out) == 0 && dy != 0 {
		// Touchpads report fractional offsets.
		if dy > 0 {
			out = append(out, control.Wheel(1))
		} else {
			out = append(out, control.Wheel(-1))
		}
	}
	return out
}
