package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frudas24/devmirror/internal/session"
)

// scriptProber replays a fixed sequence of answers.
type scriptProber struct {
	answers []bool
	err     error
	calls   int
}

// ListDevices returns the next scripted answer.
func (p *scriptProber) ListDevices(ctx context.Context) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	if len(p.answers) == 0 {
		return false, nil
	}
	ok := p.answers[0]
	p.answers = p.answers[1:]
	return ok, nil
}

// blockingProber waits for its context to expire.
type blockingProber struct{}

// ListDevices blocks until ctx is done.
func (blockingProber) ListDevices(ctx context.Context) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

// TestProbe_DebouncesTransitions verifies listeners only fire on flips.
func TestProbe_DebouncesTransitions(t *testing.T) {
	p := &scriptProber{answers: []bool{true, true, false, false, true}}
	m := New(p, session.New(""), Options{}, nil)
	var got []session.ConnectionState
	m.OnTransition(func(_ context.Context, s session.ConnectionState) { got = append(got, s) })
	for i := 0; i < 5; i++ {
		m.Probe(context.Background())
	}
	want := []session.ConnectionState{session.Connected, session.Disconnected, session.Connected}
	if len(got) != len(want) {
		t.Fatalf("transitions=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transition %d = %v", i, got[i])
		}
	}
}

// TestProbe_ErrorIsDisconnected verifies transport errors never escalate.
func TestProbe_ErrorIsDisconnected(t *testing.T) {
	sess := session.New("")
	sess.SetConnection(session.Connected)
	m := New(&scriptProber{err: errors.New("adb not found")}, sess, Options{}, nil)
	if s := m.Probe(context.Background()); s != session.Disconnected {
		t.Fatalf("state=%v", s)
	}
}

// TestProbe_TimeoutIsDisconnected verifies the probe is bounded.
func TestProbe_TimeoutIsDisconnected(t *testing.T) {
	m := New(blockingProber{}, session.New(""), Options{Timeout: 20 * time.Millisecond}, nil)
	start := time.Now()
	if s := m.Probe(context.Background()); s != session.Disconnected {
		t.Fatalf("state=%v", s)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("probe not bounded")
	}
}

// TestPoll_Cadence verifies Poll only probes when due or triggered.
func TestPoll_Cadence(t *testing.T) {
	now := time.Unix(1000, 0)
	p := &scriptProber{answers: []bool{true, true, true}}
	m := New(p, session.New(""), Options{Interval: 5 * time.Second}, nil)
	m.SetNowFunc(func() time.Time { return now })

	m.Poll(context.Background())
	m.Poll(context.Background())
	if p.calls != 1 {
		t.Fatalf("calls=%d", p.calls)
	}
	m.Trigger()
	m.Poll(context.Background())
	if p.calls != 2 {
		t.Fatalf("trigger ignored, calls=%d", p.calls)
	}
	now = now.Add(5 * time.Second)
	m.Poll(context.Background())
	if p.calls != 3 {
		t.Fatalf("cadence ignored, calls=%d", p.calls)
	}
}

// TestMarkDisconnected_ResetsSession verifies pull failures flip state and clear flags.
func TestMarkDisconnected_ResetsSession(t *testing.T) {
	sess := session.New("")
	m := New(&scriptProber{answers: []bool{true}}, sess, Options{}, nil)
	disconnects := 0
	m.OnTransition(func(_ context.Context, s session.ConnectionState) {
		if s == session.Disconnected {
			disconnects++
		}
	})
	m.Probe(context.Background())
	sess.MarkPromptShown()
	m.MarkDisconnected(context.Background(), "pull failed")
	m.MarkDisconnected(context.Background(), "pull failed")
	if disconnects != 1 {
		t.Fatalf("disconnects=%d", disconnects)
	}
	if sess.Snapshot().PromptShown {
		t.Fatalf("prompt flag survived disconnect")
	}
}

// TestHotplug_NilSafe verifies the zero listener is inert.
func TestHotplug_NilSafe(t *testing.T) {
	var h *Hotplug
	if h.Running() {
		t.Fatalf("nil hotplug running")
	}
	h.Stop()
}
