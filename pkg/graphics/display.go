package graphics

import (
	"context"
	"time"

	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/rtedge/rtedge/pkg/render"
	"github.com/veandco/go-sdl2/sdl"
)

// refresh is how often the loop wakes up without a redraw request
// to pump window events.
const refresh = time.Second / 60

type Action int

const (
	NoAction Action = iota
	ToggleMode
	Quit
)

func keyAction(key sdl.Keycode) Action {
	switch key {
	case sdl.K_m, sdl.K_SPACE:
		return ToggleMode
	case sdl.K_q, sdl.K_ESCAPE:
		return Quit
	}
	return NoAction
}

// Handler receives the user input of the display.
type Handler struct {
	Toggle func()
	// Title returns the window title, called once per second when set.
	Title func() string
}

type Display struct {
	win *Window
	log *logger.Logger
}

func NewDisplay(win *Window, log *logger.Logger) *Display {
	return &Display{win: win, log: log.Module("display")}
}

// Run drives the renderer until ctx is done or the user closes the window.
// The renderer keeps its GPU resources, the caller releases them once
// nothing submits frames anymore.
func (d *Display) Run(ctx context.Context, r *render.Renderer, h Handler) error {
	if err := r.OnSurfaceCreated(); err != nil {
		return err
	}
	r.OnSurfaceResized(d.win.Size())

	tick := time.NewTicker(refresh)
	defer tick.Stop()
	titleAt := time.Now()

	for {
		if !d.pump(r, h) {
			d.log.Info().Msg("Quit requested")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-r.Redraw():
		case <-tick.C:
		}
		if r.OnDrawFrame() {
			d.win.Swap()
		}
		if h.Title != nil && time.Since(titleAt) >= time.Second {
			d.win.SetTitle(h.Title())
			titleAt = time.Now()
		}
	}
}

// pump handles pending window events and returns false on quit.
func (d *Display) pump(r *render.Renderer, h Handler) bool {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				r.OnSurfaceResized(d.win.Size())
			}
		case *sdl.KeyboardEvent:
			if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
				continue
			}
			switch keyAction(ev.Keysym.Sym) {
			case ToggleMode:
				if h.Toggle != nil {
					h.Toggle()
				}
			case Quit:
				return false
			}
		}
	}
	return true
}
