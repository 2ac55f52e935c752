// Package render draws the latest processed frame as a textured quad.
//
// All the Renderer methods except SubmitFrame, Redraw and Skipped must be
// called from the render context (the thread owning the GPU context).
package render

import (
	"errors"
	"fmt"

	"github.com/rtedge/rtedge/pkg/handoff"
	"github.com/rtedge/rtedge/pkg/logger"
)

var ErrShader = errors.New("shader error")

type (
	Program uint32
	Texture uint32
)

// Backend is the GPU API used by the renderer.
type Backend interface {
	CompileProgram(vs, fs string) (Program, error)
	NewTexture() Texture
	// Upload replaces the whole texture with w x h RGBA pixels.
	Upload(t Texture, w, h int, pix []byte)
	Viewport(w, h int)
	Clear()
	// Draw renders the quad as a triangle strip.
	Draw(p Program, t Texture, quad []float32, mvp [16]float32)
	DeleteProgram(Program)
	DeleteTexture(Texture)
}

type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

type Renderer struct {
	gpu    Backend
	slot   *handoff.Slot
	redraw chan struct{}

	state   State
	program Program
	texture Texture

	surfaceW, surfaceH int
	frameW, frameH     int
	mvp                [16]float32

	drawn uint64
	log   *logger.Logger
}

func New(gpu Backend, log *logger.Logger) *Renderer {
	return &Renderer{
		gpu:    gpu,
		slot:   handoff.New(),
		redraw: make(chan struct{}, 1),
		mvp:    Identity,
		log:    log.Module("render"),
	}
}

// OnSurfaceCreated builds the GPU resources. It is called once the
// context is current and again after the context was lost.
func (r *Renderer) OnSurfaceCreated() error {
	program, err := r.gpu.CompileProgram(VertexShader, FragmentShader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShader, err)
	}
	r.program = program
	r.texture = r.gpu.NewTexture()
	r.state = Ready
	// frame size is forgotten so the next frame recomputes the projection
	r.frameW, r.frameH = 0, 0
	r.mvp = Identity
	r.log.Debug().Msg("Surface created")
	return nil
}

func (r *Renderer) OnSurfaceResized(w, h int) {
	r.surfaceW, r.surfaceH = w, h
	r.gpu.Viewport(w, h)
	r.mvp = Projection(w, h, r.frameW, r.frameH)
	r.log.Debug().Msgf("Surface %vx%v", w, h)
}

// OnDrawFrame draws the latest submitted frame. It returns false and leaves
// the surface untouched when there is nothing new to draw.
func (r *Renderer) OnDrawFrame() bool {
	if r.state != Ready {
		return false
	}
	buf, w, h, ok := r.slot.TakeIfDirty()
	if !ok {
		return false
	}
	if w != r.frameW || h != r.frameH {
		r.frameW, r.frameH = w, h
		r.mvp = Projection(r.surfaceW, r.surfaceH, w, h)
		r.log.Info().Msgf("Frame size %vx%v", w, h)
	}
	r.gpu.Clear()
	r.gpu.Upload(r.texture, w, h, buf)
	r.gpu.Draw(r.program, r.texture, Quad[:], r.mvp)
	r.drawn++
	return true
}

// SubmitFrame stores a copy of the frame for the next draw and asks for a
// redraw. It never blocks on the render context.
func (r *Renderer) SubmitFrame(buf []byte, w, h int) {
	r.slot.Publish(buf, w, h)
	select {
	case r.redraw <- struct{}{}:
	default:
	}
}

// Redraw signals that a new frame was submitted. Signals coalesce.
func (r *Renderer) Redraw() <-chan struct{} { return r.redraw }

// Skipped returns the number of frames replaced before they were drawn.
func (r *Renderer) Skipped() uint64 { return r.slot.Dropped() }

func (r *Renderer) Drawn() uint64 { return r.drawn }

func (r *Renderer) State() State { return r.state }

func (r *Renderer) Projection() [16]float32 { return r.mvp }

// Release frees the GPU resources.
func (r *Renderer) Release() {
	if r.state != Ready {
		return
	}
	r.gpu.DeleteTexture(r.texture)
	r.gpu.DeleteProgram(r.program)
	r.state = Uninitialized
	r.log.Debug().Msgf("Released after %v frames", r.drawn)
}
