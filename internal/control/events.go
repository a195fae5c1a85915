// Package control translates viewer input into device key and touch commands.
package control

// EventKind tags an input event.
type EventKind int

const (
	EventTap EventKind = iota + 1
	EventBack
	EventWheel
	EventWheelClick
	EventKey
	EventMedia
)

// WheelDir is a wheel rotation direction.
type WheelDir int

const (
	WheelUp   WheelDir = 1
	WheelDown WheelDir = -1
)

// Event is one local input event in canvas coordinates.
type Event struct {
	Kind  EventKind
	X, Y  int
	Dir   WheelDir
	Key   Intent
	Media MediaKind
}

// Tap returns a tap at canvas coordinates.
func Tap(x, y int) Event { return Event{Kind: EventTap, X: x, Y: y} }

// Back returns a back event.
func Back() Event { return Event{Kind: EventBack} }

// Wheel returns a wheel event. A positive delta is up.
func Wheel(delta int) Event {
	dir := WheelDown
	if delta > 0 {
		dir = WheelUp
	}
	return Event{Kind: EventWheel, Dir: dir}
}

// WheelClick returns a wheel press.
func WheelClick() Event { return Event{Kind: EventWheelClick} }

// Key returns a key intent event.
func Key(in Intent) Event { return Event{Kind: EventKey, Key: in} }

// Media returns a media transport event.
func Media(k MediaKind) Event { return Event{Kind: EventMedia, Media: k} }

// CommandType identifies what is sent to the device.
type CommandType string

const (
	CmdKey CommandType = "key"
	CmdTap CommandType = "tap"
)

// Command is a translated device command.
type Command struct {
	Type  CommandType
	Code  int
	X, Y  int
	Label string
}
