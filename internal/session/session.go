// Package session holds runtime state shared by the capture loop, the input
// mapper and the viewer surfaces.
package session

import (
	"sync"
	"time"
)

// ConnectionState is the debounced device reachability.
type ConnectionState int

const (
	// Disconnected means the last probe or pull failed.
	Disconnected ConnectionState = iota
	// Connected means a device answered the last probe.
	Connected
)

// String returns the state name.
func (c ConnectionState) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

// Mode is the input interaction mode.
type Mode int

const (
	// Normal maps directions straight through and taps to coordinates.
	Normal Mode = iota
	// LauncherControl rotates vertical intents onto the horizontal keys and
	// turns taps into confirm.
	LauncherControl
)

// String returns the mode name.
func (m Mode) String() string {
	if m == LauncherControl {
		return "launcher"
	}
	return "normal"
}

// Preparedness records whether the device carries the home package.
type Preparedness int

const (
	// PreparednessUnknown means the check failed or has not run.
	PreparednessUnknown Preparedness = iota
	// Prepared means the home package is installed.
	Prepared
	// Unprepared means the home package is missing.
	Unprepared
)

// String returns the preparedness name.
func (p Preparedness) String() string {
	switch p {
	case Prepared:
		return "prepared"
	case Unprepared:
		return "unprepared"
	default:
		return "unknown"
	}
}

// Snapshot represents a read-only view of the current session state.
type Snapshot struct {
	Authenticated bool
	InputEnabled  bool
	Connection    ConnectionState
	Mode          Mode
	Preparedness  Preparedness
	Foreground    string
	PromptShown   bool
	PromptRefused bool
	Status        string
	StatusAt      time.Time
}

// Session holds runtime state for the mirror.
type Session struct {
	mu            sync.RWMutex
	password      string
	authenticated bool
	inputEnabled  bool
	conn          ConnectionState
	mode          Mode
	prepared      Preparedness
	foreground    string
	promptShown   bool
	promptRefused bool
	status        string
	statusAt      time.Time
	now           func() time.Time
}

// New returns an initialized session with the given password. An empty
// password disables viewer authentication.
func New(password string) *Session {
	return &Session{
		password:     password,
		inputEnabled: true,
		now:          time.Now,
	}
}

// Authenticate validates the password and marks the session as authenticated.
func (s *Session) Authenticate(pass string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.password == "" || (pass != "" && pass == s.password) {
		s.authenticated = true
		return true
	}
	s.authenticated = false
	return false
}

// Logout clears authentication state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
}

// IsAuthenticated reports whether the session is authenticated.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.password == "" || s.authenticated
}

// SetInputEnabled toggles whether inputs are forwarded to the device.
func (s *Session) SetInputEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputEnabled = enabled
}

// InputEnabled reports whether inputs are forwarded to the device.
func (s *Session) InputEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputEnabled
}

// SetConnection stores the connection state and reports whether it changed.
// Entering Disconnected clears every per-session flag.
func (s *Session) SetConnection(state ConnectionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == state {
		return false
	}
	s.conn = state
	if state == Disconnected {
		s.promptShown = false
		s.promptRefused = false
		s.prepared = PreparednessUnknown
		s.foreground = ""
	}
	return true
}

// Connection returns the last stored connection state.
func (s *Session) Connection() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// SetMode sets the interaction mode.
func (s *Session) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// ToggleMode flips the interaction mode and returns the new value.
func (s *Session) ToggleMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == LauncherControl {
		s.mode = Normal
	} else {
		s.mode = LauncherControl
	}
	return s.mode
}

// Mode returns the interaction mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetPreparedness records the result of the preparedness check.
func (s *Session) SetPreparedness(p Preparedness) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepared = p
}

// Preparedness returns the last preparedness result.
func (s *Session) Preparedness() Preparedness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prepared
}

// SetForeground records the detected foreground package.
func (s *Session) SetForeground(pkg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foreground = pkg
}

// Foreground returns the detected foreground package.
func (s *Session) Foreground() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.foreground
}

// MarkPromptShown sets the prepare-prompt flag and reports whether this call set it.
// It refuses once the user declined the prompt in this session.
func (s *Session) MarkPromptShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.promptShown || s.promptRefused {
		return false
	}
	s.promptShown = true
	return true
}

// RefusePrompt records that the user declined preparation for this session.
func (s *Session) RefusePrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptRefused = true
}

// SetStatus stores a transient status line.
func (s *Session) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
	s.statusAt = s.now()
}

// Status returns the last status line.
func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetNowFunc overrides the status clock (tests).
func (s *Session) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Authenticated: s.password == "" || s.authenticated,
		InputEnabled:  s.inputEnabled,
		Connection:    s.conn,
		Mode:          s.mode,
		Preparedness:  s.prepared,
		Foreground:    s.foreground,
		PromptShown:   s.promptShown,
		PromptRefused: s.promptRefused,
		Status:        s.status,
		StatusAt:      s.statusAt,
	}
}
