// Package graphics hosts the render context: an SDL window with
// an OpenGL 2.1 context and the event loop driving the renderer.
//
// Everything here must be called on the main thread (see pkg/thread).
package graphics

import (
	"fmt"

	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/veandco/go-sdl2/sdl"
)

type Config struct {
	Title         string
	Width, Height int
	VSync         bool
}

type Window struct {
	w   *sdl.Window
	ctx sdl.GLContext
	log *logger.Logger
}

// NewWindow creates a resizable window with a current GL context.
func NewWindow(conf Config, log *logger.Logger) (*Window, error) {
	log = log.Module("sdl")
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	setAttribute(log, sdl.GL_CONTEXT_MAJOR_VERSION, 2)
	setAttribute(log, sdl.GL_CONTEXT_MINOR_VERSION, 1)
	setAttribute(log, sdl.GL_DOUBLEBUFFER, 1)

	w, err := sdl.CreateWindow(
		conf.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(conf.Width), int32(conf.Height),
		sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE|sdl.WINDOW_ALLOW_HIGHDPI,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("window: %w", err)
	}
	ctx, err := w.GLCreateContext()
	if err != nil {
		_ = w.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("gl context: %w", err)
	}
	win := &Window{w: w, ctx: ctx, log: log}
	if err := w.GLMakeCurrent(ctx); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("gl context: %w", err)
	}
	if conf.VSync {
		if err := sdl.GLSetSwapInterval(1); err != nil {
			log.Warn().Err(err).Msg("No vsync")
		}
	}
	log.Info().Msgf("Window %vx%v", conf.Width, conf.Height)
	return win, nil
}

// Size returns the drawable size in pixels.
func (w *Window) Size() (int, int) {
	x, y := w.w.GLGetDrawableSize()
	return int(x), int(y)
}

func (w *Window) SetTitle(title string) { w.w.SetTitle(title) }

func (w *Window) Swap() { w.w.GLSwap() }

func (w *Window) Destroy() {
	sdl.GLDeleteContext(w.ctx)
	if err := w.w.Destroy(); err != nil {
		w.log.Error().Err(err).Msg("Couldn't destroy the window")
	}
	sdl.Quit()
	w.log.Debug().Msg("Window destroyed")
}

func setAttribute(log *logger.Logger, attr sdl.GLattr, value int) {
	if err := sdl.GLSetAttribute(attr, value); err != nil {
		log.Error().Err(err).Msgf("attribute %v", attr)
	}
}
