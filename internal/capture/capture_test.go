package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frudas24/devmirror/internal/frame"
	"github.com/frudas24/devmirror/internal/pixel"
	"github.com/frudas24/devmirror/internal/session"
)

// testLayout is a small device geometry.
func testLayout() frame.Layout {
	return frame.Layout{DeviceWidth: 8, DeviceHeight: 8, Scale: 1, NavBarHeight: 2, LuminanceThreshold: 16, CropRows: 2}
}

// scriptGate replays connection states and cancels the loop when exhausted.
type scriptGate struct {
	mu      sync.Mutex
	states  []session.ConnectionState
	current session.ConnectionState
	marks   int
	cancel  context.CancelFunc
}

// Poll returns the next scripted state.
func (g *scriptGate) Poll(context.Context) session.ConnectionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.states) == 0 {
		g.cancel()
		return g.current
	}
	g.current = g.states[0]
	g.states = g.states[1:]
	return g.current
}

// State returns the last polled state.
func (g *scriptGate) State() session.ConnectionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// MarkDisconnected counts disconnect reports.
func (g *scriptGate) MarkDisconnected(context.Context, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.marks++
	g.current = session.Disconnected
}

// scriptPuller replays pull outcomes.
type scriptPuller struct {
	mu      sync.Mutex
	fails   []bool
	data    []byte
	active  atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
}

// Pull returns data or an error per script and records overlap.
func (p *scriptPuller) Pull(context.Context, string) ([]byte, error) {
	if p.active.Add(1) > 1 {
		p.overlap.Store(true)
	}
	defer p.active.Add(-1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fail := false
	if len(p.fails) > 0 {
		fail = p.fails[0]
		p.fails = p.fails[1:]
	}
	if fail {
		return nil, errors.New("adb: error: device offline")
	}
	return p.data, nil
}

// countingSink records presented frames.
type countingSink struct {
	mu           sync.Mutex
	frames       []frame.Rendered
	placeholders int
}

// Present records a frame.
func (s *countingSink) Present(r frame.Rendered) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, r)
}

// PresentPlaceholder counts placeholders.
func (s *countingSink) PresentPlaceholder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeholders++
}

// newTestAcquirer builds an acquirer with an instant sleep.
func newTestAcquirer(p Puller, g Gate, sink Sink) *Acquirer {
	a := NewAcquirer(p, g, frame.NewProcessor(testLayout()), sink, Options{Profile: pixel.RGBA8888}, nil)
	a.sleep = func(context.Context, time.Duration) {}
	return a
}

// TestRun_OnePlaceholderPerDisconnectEdge verifies placeholder debouncing.
func TestRun_OnePlaceholderPerDisconnectEdge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	D, C := session.Disconnected, session.Connected
	g := &scriptGate{states: []session.ConnectionState{D, D, D, C, C, D, D, C, D}, cancel: cancel}
	sink := &countingSink{}
	p := &scriptPuller{data: make([]byte, 8*8*4)}
	if err := newTestAcquirer(p, g, sink).Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sink.placeholders != 3 {
		t.Fatalf("placeholders=%d want 3", sink.placeholders)
	}
	if len(sink.frames) != 3 {
		t.Fatalf("frames=%d want 3", len(sink.frames))
	}
}

// TestRun_PullFailureIsDisconnectEdge verifies a failed pull reports a disconnect at once.
func TestRun_PullFailureIsDisconnectEdge(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	D, C := session.Disconnected, session.Connected
	g := &scriptGate{states: []session.ConnectionState{C, C, D, D}, cancel: cancel}
	sink := &countingSink{}
	p := &scriptPuller{data: make([]byte, 8*8*4), fails: []bool{false, true}}
	if err := newTestAcquirer(p, g, sink).Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if g.marks != 1 {
		t.Fatalf("marks=%d want 1", g.marks)
	}
	if sink.placeholders != 1 || len(sink.frames) != 1 {
		t.Fatalf("placeholders=%d frames=%d", sink.placeholders, len(sink.frames))
	}
}

// TestRun_DecodeFailureShowsErrorFrame verifies short buffers still render.
func TestRun_DecodeFailureShowsErrorFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := &scriptGate{states: []session.ConnectionState{session.Connected, session.Disconnected}, cancel: cancel}
	sink := &countingSink{}
	a := newTestAcquirer(&scriptPuller{data: []byte{1, 2, 3}}, g, sink)
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.frames) != 1 || sink.frames[0].DecodeErr == nil {
		t.Fatalf("expected one error frame, got %+v", sink.frames)
	}
	if got := a.Stats(); got.DecodeErrors != 1 || got.Frames != 1 {
		t.Fatalf("stats=%+v", got)
	}
}

// TestForceRefresh_Disconnected verifies refresh is refused without a device.
func TestForceRefresh_Disconnected(t *testing.T) {
	a := newTestAcquirer(&scriptPuller{}, &scriptGate{}, &countingSink{})
	if err := a.ForceRefresh(context.Background()); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("err=%v", err)
	}
}

// TestForceRefresh_SerializedWithLoop verifies pulls never overlap.
func TestForceRefresh_SerializedWithLoop(t *testing.T) {
	p := &scriptPuller{data: make([]byte, 8*8*4), delay: 2 * time.Millisecond}
	g := &scriptGate{current: session.Connected}
	a := newTestAcquirer(p, g, &countingSink{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if err := a.ForceRefresh(context.Background()); err != nil {
					t.Errorf("refresh: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if p.overlap.Load() {
		t.Fatalf("pulls overlapped")
	}
}

// heldPuller blocks its first pull until released, then fails it.
type heldPuller struct {
	release chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

// Pull fails the first call after release and succeeds afterwards.
func (p *heldPuller) Pull(context.Context, string) ([]byte, error) {
	if p.calls.Add(1) == 1 {
		close(p.started)
		<-p.release
		return nil, errors.New("adb: error: device offline")
	}
	return make([]byte, 8*8*4), nil
}

// TestForceRefresh_WaitingBehindFailedPull verifies a refresh queued behind
// the loop's failing pull does not paint over the placeholder.
func TestForceRefresh_WaitingBehindFailedPull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := &scriptGate{states: []session.ConnectionState{session.Connected}, cancel: cancel}
	sink := &countingSink{}
	p := &heldPuller{release: make(chan struct{}), started: make(chan struct{})}
	a := newTestAcquirer(p, g, sink)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	<-p.started

	refreshed := make(chan error, 1)
	go func() { refreshed <- a.ForceRefresh(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(p.release)

	if err := <-refreshed; !errors.Is(err, ErrDisconnected) {
		t.Fatalf("refresh err=%v want ErrDisconnected", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.frames) != 0 || sink.placeholders != 1 {
		t.Fatalf("frames=%d placeholders=%d", len(sink.frames), sink.placeholders)
	}
	if got := p.calls.Load(); got != 1 {
		t.Fatalf("pulls=%d want 1", got)
	}
}

// TestForceRefresh_PullFailureMarksDisconnect verifies a failed forced pull
// downgrades the connection and shows the placeholder once.
func TestForceRefresh_PullFailureMarksDisconnect(t *testing.T) {
	g := &scriptGate{current: session.Connected}
	sink := &countingSink{}
	p := &scriptPuller{fails: []bool{true}}
	a := newTestAcquirer(p, g, sink)

	if err := a.ForceRefresh(context.Background()); err == nil || errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected pull error, got %v", err)
	}
	if g.marks != 1 || g.State() != session.Disconnected {
		t.Fatalf("marks=%d state=%v", g.marks, g.State())
	}
	if err := a.ForceRefresh(context.Background()); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("second refresh err=%v", err)
	}
	if sink.placeholders != 1 || len(sink.frames) != 0 {
		t.Fatalf("placeholders=%d frames=%d", sink.placeholders, len(sink.frames))
	}
	if a.Stats().PullErrors != 1 {
		t.Fatalf("stats=%+v", a.Stats())
	}
}

// TestHandoff_LatestWins verifies subscribers only see the newest frame.
func TestHandoff_LatestWins(t *testing.T) {
	h := NewHandoff(testLayout())
	ch, cancel := h.Subscribe()
	defer cancel()
	h.Present(frame.Rendered{Geometry: frame.Geometry{YOffset: 1}})
	h.Present(frame.Rendered{Geometry: frame.Geometry{YOffset: 2}})
	got := <-ch
	if got.Geometry.YOffset != 2 {
		t.Fatalf("got stale frame %+v", got.Geometry)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected queued frame %+v", extra.Geometry)
	default:
	}
	if h.Geometry().YOffset != 2 {
		t.Fatalf("latest geometry mismatch")
	}
}

// TestHandoff_Placeholder verifies the placeholder frame shape.
func TestHandoff_Placeholder(t *testing.T) {
	h := NewHandoff(testLayout())
	h.PresentPlaceholder()
	r, ok := h.Latest()
	if !ok || !r.Placeholder || r.Image == nil {
		t.Fatalf("latest=%+v ok=%v", r, ok)
	}
	if r.Geometry.ScaledHeight != 0 {
		t.Fatalf("placeholder must carry zero geometry")
	}
}
