package window

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/frudas24/devmirror/internal/control"
)

// recordingHandler captures handled actions.
type recordingHandler struct {
	mu      sync.Mutex
	events  []control.Event
	toggles int
	block   chan struct{}
}

// Handle records ev, optionally blocking until released.
func (r *recordingHandler) Handle(_ context.Context, ev control.Event) control.Outcome {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return control.Outcome{}
}

// Toggle records a mode toggle.
func (r *recordingHandler) Toggle() control.Outcome {
	r.mu.Lock()
	r.toggles++
	r.mu.Unlock()
	return control.Outcome{}
}

// snapshot returns the recorded counts.
func (r *recordingHandler) snapshot() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), r.toggles
}

// TestQueue_RunsActions verifies events and toggles reach the handler.
func TestQueue_RunsActions(t *testing.T) {
	h := &recordingHandler{}
	q := NewQueue(h, 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Push(Action{Event: control.Back()})
	q.Push(Action{Toggle: true})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ev, tg := h.snapshot(); ev == 1 && tg == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	ev, tg := h.snapshot()
	t.Fatalf("events=%d toggles=%d", ev, tg)
}

// TestQueue_PushNeverBlocks verifies a full queue drops instead of blocking.
func TestQueue_PushNeverBlocks(t *testing.T) {
	q := NewQueue(&recordingHandler{}, 2, nil)
	if !q.Push(Action{}) || !q.Push(Action{}) {
		t.Fatalf("expected first pushes to succeed")
	}
	if q.Push(Action{}) {
		t.Fatalf("expected full queue to reject")
	}
}

// TestActionFor verifies the key bindings produce the right events.
func TestActionFor(t *testing.T) {
	cases := []struct {
		b    Binding
		want control.Event
	}{
		{BindUp, control.Key(control.IntentUp)},
		{BindRight, control.Key(control.IntentRight)},
		{BindConfirm, control.Key(control.IntentCenter)},
		{BindBack, control.Back()},
		{BindNext, control.Media(control.MediaNext)},
		{BindPrevious, control.Media(control.MediaPrevious)},
	}
	for _, tc := range cases {
		a, ok := ActionFor(tc.b)
		if !ok || a.Toggle || a.Event != tc.want {
			t.Fatalf("binding %d: got %+v ok=%v", tc.b, a, ok)
		}
	}
	if a, ok := ActionFor(BindToggle); !ok || !a.Toggle {
		t.Fatalf("expected toggle action")
	}
	if _, ok := ActionFor(BindNone); ok {
		t.Fatalf("expected none to be unbound")
	}
}

// TestWheelSteps verifies offsets become one event per step.
func TestWheelSteps(t *testing.T) {
	if got := WheelSteps(2); len(got) != 2 || got[0].Dir != control.WheelUp {
		t.Fatalf("up: %+v", got)
	}
	if got := WheelSteps(-1); len(got) != 1 || got[0].Dir != control.WheelDown {
		t.Fatalf("down: %+v", got)
	}
	if got := WheelSteps(0.3); len(got) != 1 || got[0].Dir != control.WheelUp {
		t.Fatalf("fractional: %+v", got)
	}
	if got := WheelSteps(0); len(got) != 0 {
		t.Fatalf("zero: %+v", got)
	}
}
