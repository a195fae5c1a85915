// Package testutil provides fakes shared by package tests.
package testutil

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/frudas24/devmirror/internal/adb"
)

// Call records a single transport invocation.
type Call struct {
	Name string
	Args string
}

// FakeTransport implements adb.Transport with scripted results and records calls.
type FakeTransport struct {
	mu sync.Mutex

	Connected bool
	ListErr   error
	Frame     []byte
	PullErr   error
	// Replies maps a space-joined shell command to its result. Unlisted commands succeed.
	Replies map[string]adb.Result
	// FailShell makes every unlisted shell command fail.
	FailShell bool

	Calls []Call
}

// Ensure FakeTransport implements the interface.
var _ adb.Transport = (*FakeTransport)(nil)

// Pull records a pull and returns Frame or PullErr.
func (f *FakeTransport) Pull(_ context.Context, remotePath string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Name: "Pull", Args: remotePath})
	if f.PullErr != nil {
		return nil, f.PullErr
	}
	return append([]byte(nil), f.Frame...), nil
}

// Shell records a shell command and returns the scripted result.
func (f *FakeTransport) Shell(_ context.Context, args ...string) adb.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.Join(args, " ")
	f.Calls = append(f.Calls, Call{Name: "Shell", Args: key})
	if r, ok := f.Replies[key]; ok {
		return r
	}
	if f.FailShell {
		return adb.Result{Stderr: "error: device offline"}
	}
	return adb.Result{OK: true}
}

// ListDevices records a probe.
func (f *FakeTransport) ListDevices(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Name: "ListDevices"})
	return f.Connected, f.ListErr
}

// SetConnected changes the probe answer.
func (f *FakeTransport) SetConnected(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = ok
}

// Count returns how many calls had the given name.
func (f *FakeTransport) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Shells returns the recorded shell commands.
func (f *FakeTransport) Shells() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if c.Name == "Shell" {
			out = append(out, c.Args)
		}
	}
	return out
}

// KeyEvents returns the key codes sent through input keyevent.
func (f *FakeTransport) KeyEvents() []int {
	var codes []int
	for _, s := range f.Shells() {
		rest, ok := strings.CutPrefix(s, "input keyevent ")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil {
			codes = append(codes, n)
		}
	}
	return codes
}

// Reset clears recorded calls.
func (f *FakeTransport) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}
