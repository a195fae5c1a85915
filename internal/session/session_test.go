package session

import (
	"testing"
	"time"
)

// TestAuthenticate_Success verifies successful authentication.
func TestAuthenticate_Success(t *testing.T) {
	s := New("secret")
	if !s.Authenticate("secret") {
		t.Fatalf("expected authentication to succeed")
	}
	if !s.IsAuthenticated() {
		t.Fatalf("expected authenticated state")
	}
}

// TestAuthenticate_Fail verifies failed authentication.
func TestAuthenticate_Fail(t *testing.T) {
	s := New("secret")
	if s.Authenticate("nope") {
		t.Fatalf("expected authentication to fail")
	}
	if s.IsAuthenticated() {
		t.Fatalf("expected unauthenticated state")
	}
}

// TestAuthenticate_NoPassword verifies that an empty password disables auth.
func TestAuthenticate_NoPassword(t *testing.T) {
	s := New("")
	if !s.IsAuthenticated() {
		t.Fatalf("expected open session")
	}
}

// TestLogout verifies logout clears auth state.
func TestLogout(t *testing.T) {
	s := New("secret")
	s.Authenticate("secret")
	s.Logout()
	if s.IsAuthenticated() {
		t.Fatalf("expected unauthenticated state")
	}
}

// TestInputEnabled_Toggle verifies input enabled toggle.
func TestInputEnabled_Toggle(t *testing.T) {
	s := New("secret")
	s.SetInputEnabled(false)
	if s.InputEnabled() {
		t.Fatalf("expected input disabled")
	}
	s.SetInputEnabled(true)
	if !s.InputEnabled() {
		t.Fatalf("expected input enabled")
	}
}

// TestSetConnection_ResetsFlagsOnDisconnect verifies per-session flags clear.
func TestSetConnection_ResetsFlagsOnDisconnect(t *testing.T) {
	s := New("")
	if !s.SetConnection(Connected) {
		t.Fatalf("expected change")
	}
	if s.SetConnection(Connected) {
		t.Fatalf("expected no change on repeat")
	}
	s.SetPreparedness(Unprepared)
	s.SetForeground("com.a")
	if !s.MarkPromptShown() {
		t.Fatalf("expected first prompt")
	}
	if s.MarkPromptShown() {
		t.Fatalf("expected prompt once per session")
	}
	s.SetConnection(Disconnected)
	snap := s.Snapshot()
	if snap.PromptShown || snap.PromptRefused || snap.Preparedness != PreparednessUnknown || snap.Foreground != "" {
		t.Fatalf("flags not reset: %+v", snap)
	}
	s.SetConnection(Connected)
	if !s.MarkPromptShown() {
		t.Fatalf("expected prompt in new session")
	}
}

// TestMarkPromptShown_Refused verifies a refused prompt stays quiet.
func TestMarkPromptShown_Refused(t *testing.T) {
	s := New("")
	s.RefusePrompt()
	if s.MarkPromptShown() {
		t.Fatalf("expected refusal to suppress the prompt")
	}
}

// TestToggleMode verifies mode flipping.
func TestToggleMode(t *testing.T) {
	s := New("")
	if s.ToggleMode() != LauncherControl || s.ToggleMode() != Normal {
		t.Fatalf("unexpected toggle sequence")
	}
}

// TestSnapshot verifies snapshot content.
func TestSnapshot(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New("secret")
	s.SetNowFunc(func() time.Time { return at })
	s.Authenticate("secret")
	s.SetInputEnabled(false)
	s.SetMode(LauncherControl)
	s.SetStatus("Back button pressed")
	snap := s.Snapshot()
	if !snap.Authenticated || snap.InputEnabled || snap.Mode != LauncherControl || snap.Status != "Back button pressed" || !snap.StatusAt.Equal(at) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
