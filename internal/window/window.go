//go:build !tinygo && cgo

// Package window shows the mirrored screen in a desktop window and forwards local input.
package window

import (
	"context"
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/frudas24/devmirror/internal/control"
	"github.com/frudas24/devmirror/internal/frame"
)

// errClosed ends the game loop when the context is cancelled.
var errClosed = errors.New("window closed")

// keyBindings maps ebiten keys to bindings.
var keyBindings = map[ebiten.Key]Binding{
	ebiten.KeyW:          BindUp,
	ebiten.KeyArrowUp:    BindUp,
	ebiten.KeyS:          BindDown,
	ebiten.KeyArrowDown:  BindDown,
	ebiten.KeyA:          BindLeft,
	ebiten.KeyArrowLeft:  BindLeft,
	ebiten.KeyD:          BindRight,
	ebiten.KeyArrowRight: BindRight,
	ebiten.KeyEnter:      BindConfirm,
	ebiten.KeyE:          BindConfirm,
	ebiten.KeyShiftRight: BindConfirm,
	ebiten.KeyQ:          BindBack,
	ebiten.KeySlash:      BindBack,
	ebiten.KeyEscape:     BindBack,
	ebiten.KeySpace:      BindPlayPause,
	ebiten.KeyPageUp:     BindNext,
	ebiten.KeyPageDown:   BindPrevious,
	ebiten.KeyAltLeft:    BindToggle,
	ebiten.KeyAltRight:   BindToggle,
}

// game implements ebiten.Game over a frame source and an input queue.
type game struct {
	ctx    context.Context
	src    FrameSource
	queue  *Queue
	layout frame.Layout
	img    *ebiten.Image
	last   *image.RGBA
}

// Run opens the window and blocks until it is closed or ctx is cancelled.
func Run(ctx context.Context, title string, src FrameSource, queue *Queue) error {
	l := src.Layout()
	g := &game{ctx: ctx, src: src, queue: queue, layout: l}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(l.CanvasWidth()*2, l.CanvasHeight()*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(30)
	err := ebiten.RunGame(g)
	if errors.Is(err, errClosed) {
		return nil
	}
	return err
}

// Update polls input and queues actions.
func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return errClosed
	}
	if g.queue == nil {
		return nil
	}
	for key, b := range keyBindings {
		if !inpututil.IsKeyJustPressed(key) {
			continue
		}
		if a, ok := ActionFor(b); ok {
			g.queue.Push(a)
		}
	}

	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.queue.Push(Action{Event: control.Tap(x, y)})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		g.queue.Push(Action{Event: control.Back()})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonMiddle) {
		g.queue.Push(Action{Event: control.WheelClick()})
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		for _, ev := range WheelSteps(dy) {
			g.queue.Push(Action{Event: ev})
		}
	}
	return nil
}

// Draw uploads the latest frame when it changed.
func (g *game) Draw(screen *ebiten.Image) {
	r, ok := g.src.Latest()
	if !ok || r.Image == nil {
		return
	}
	if r.Image != g.last {
		b := r.Image.Bounds()
		if g.img == nil || g.img.Bounds().Dx() != b.Dx() || g.img.Bounds().Dy() != b.Dy() {
			if g.img != nil {
				g.img.Deallocate()
			}
			g.img = ebiten.NewImage(b.Dx(), b.Dy())
		}
		g.img.WritePixels(r.Image.Pix)
		g.last = r.Image
	}
	screen.DrawImage(g.img, nil)
}

// Layout keeps the logical screen at canvas size so cursor positions are canvas coordinates.
func (g *game) Layout(int, int) (int, int) {
	return g.layout.CanvasWidth(), g.layout.CanvasHeight()
}
