// Package control translates viewer input into device key and touch commands.
package control

import "github.com/frudas24/devmirror/internal/session"

// Android key codes sent through input keyevent.
const (
	KeyHome       = 3
	KeyBack       = 4
	KeyDpadUp     = 19
	KeyDpadDown   = 20
	KeyDpadLeft   = 21
	KeyDpadRight  = 22
	KeyDpadCenter = 23
	KeyEnter      = 66
	KeyPlayPause  = 85
	KeyMediaNext  = 87
	KeyMediaPrev  = 88
	KeyAppSwitch  = 187
)

// Intent is a device-independent key intent.
type Intent string

const (
	IntentUp     Intent = "up"
	IntentDown   Intent = "down"
	IntentLeft   Intent = "left"
	IntentRight  Intent = "right"
	IntentCenter Intent = "center"
	IntentBack   Intent = "back"
	IntentHome   Intent = "home"
	IntentRecent Intent = "recent"
)

// MediaKind names a media transport key.
type MediaKind string

const (
	MediaPlayPause MediaKind = "playPause"
	MediaNext      MediaKind = "next"
	MediaPrevious  MediaKind = "previous"
)

// resolveIntent returns the key code and label for an intent in mode.
// LauncherControl folds up/down onto left/right and confirms with enter.
func resolveIntent(in Intent, mode session.Mode) (int, string, bool) {
	launcher := mode == session.LauncherControl
	switch in {
	case IntentUp:
		if launcher {
			return KeyDpadLeft, "D-pad left", true
		}
		return KeyDpadUp, "D-pad up", true
	case IntentDown:
		if launcher {
			return KeyDpadRight, "D-pad right", true
		}
		return KeyDpadDown, "D-pad down", true
	case IntentLeft:
		return KeyDpadLeft, "D-pad left", true
	case IntentRight:
		return KeyDpadRight, "D-pad right", true
	case IntentCenter:
		if launcher {
			return KeyEnter, "Enter", true
		}
		return KeyDpadCenter, "D-pad center", true
	case IntentBack:
		return KeyBack, "Back button", true
	case IntentHome:
		return KeyHome, "Home button", true
	case IntentRecent:
		return KeyAppSwitch, "Recent apps", true
	default:
		return 0, "", false
	}
}

// resolveMedia returns the key code and label for a media kind.
func resolveMedia(k MediaKind) (int, string, bool) {
	switch k {
	case MediaPlayPause:
		return KeyPlayPause, "Play/pause", true
	case MediaNext:
		return KeyMediaNext, "Next track", true
	case MediaPrevious:
		return KeyMediaPrev, "Previous track", true
	default:
		return 0, "", false
	}
}
