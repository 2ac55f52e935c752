package render

import (
	"errors"
	"sync"
	"testing"

	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	w, h int
	pix  []byte
}

type fakeGPU struct {
	compileErr error
	programs   int
	textures   int
	deleted    []string
	viewport   [2]int
	clears     int
	uploads    []upload
	draws      int
	lastQuad   []float32
	lastMVP    [16]float32
}

func (g *fakeGPU) CompileProgram(vs, fs string) (Program, error) {
	if g.compileErr != nil {
		return 0, g.compileErr
	}
	g.programs++
	return Program(g.programs), nil
}
func (g *fakeGPU) NewTexture() Texture { g.textures++; return Texture(g.textures) }
func (g *fakeGPU) Upload(_ Texture, w, h int, pix []byte) {
	g.uploads = append(g.uploads, upload{w, h, append([]byte(nil), pix...)})
}
func (g *fakeGPU) Viewport(w, h int) { g.viewport = [2]int{w, h} }
func (g *fakeGPU) Clear()            { g.clears++ }
func (g *fakeGPU) Draw(_ Program, _ Texture, quad []float32, mvp [16]float32) {
	g.draws++
	g.lastQuad, g.lastMVP = quad, mvp
}
func (g *fakeGPU) DeleteProgram(Program) { g.deleted = append(g.deleted, "program") }
func (g *fakeGPU) DeleteTexture(Texture) { g.deleted = append(g.deleted, "texture") }

func TestProjection(t *testing.T) {
	tests := []struct {
		name           string
		sw, sh, fw, fh int
		sx, sy         float32
	}{
		{name: "same aspect", sw: 1280, sh: 720, fw: 1280, fh: 720, sx: 1, sy: 1},
		{name: "wide surface", sw: 1920, sh: 1080, fw: 640, fh: 480, sx: 1.3333334, sy: 1},
		{name: "tall surface", sw: 1080, sh: 1920, fw: 640, fh: 480, sx: 1, sy: 2.3703704},
		{name: "no surface", sw: 0, sh: 1080, fw: 640, fh: 480, sx: 1, sy: 1},
		{name: "no frame", sw: 1920, sh: 1080, fw: 640, fh: 0, sx: 1, sy: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := Projection(test.sw, test.sh, test.fw, test.fh)
			assert.InDelta(t, test.sx, m[0], 1e-5)
			assert.InDelta(t, test.sy, m[5], 1e-5)
			assert.Equal(t, float32(1), m[10])
			assert.Equal(t, float32(1), m[15])
			for _, i := range []int{1, 2, 3, 4, 6, 7, 8, 9, 11, 12, 13, 14} {
				assert.Zero(t, m[i])
			}
		})
	}
}

func TestShaderError(t *testing.T) {
	gpu := &fakeGPU{compileErr: errors.New("0:1: syntax error")}
	r := New(gpu, logger.Nop())
	err := r.OnSurfaceCreated()
	assert.ErrorIs(t, err, ErrShader)
	assert.Equal(t, Uninitialized, r.State())

	r.SubmitFrame(make([]byte, 16), 2, 2)
	assert.False(t, r.OnDrawFrame())
}

func TestDraw(t *testing.T) {
	gpu := &fakeGPU{}
	r := New(gpu, logger.Nop())
	require.NoError(t, r.OnSurfaceCreated())
	assert.Equal(t, Ready, r.State())
	r.OnSurfaceResized(1920, 1080)
	assert.Equal(t, [2]int{1920, 1080}, gpu.viewport)
	assert.Equal(t, Identity, r.Projection())

	// nothing submitted
	assert.False(t, r.OnDrawFrame())
	assert.Zero(t, gpu.clears)

	frame := make([]byte, 640*480*4)
	frame[0] = 9
	r.SubmitFrame(frame, 640, 480)
	frame[0] = 1 // renderer keeps its own copy

	select {
	case <-r.Redraw():
	default:
		t.Fatal("no redraw request")
	}

	assert.True(t, r.OnDrawFrame())
	require.Len(t, gpu.uploads, 1)
	assert.Equal(t, 640, gpu.uploads[0].w)
	assert.Equal(t, byte(9), gpu.uploads[0].pix[0])
	assert.Equal(t, 1, gpu.draws)
	assert.Equal(t, Quad[:], gpu.lastQuad)
	assert.InDelta(t, 1.3333334, gpu.lastMVP[0], 1e-5)

	// drawn frame isn't drawn again
	assert.False(t, r.OnDrawFrame())
	assert.Equal(t, 1, gpu.draws)
	assert.Equal(t, uint64(1), r.Drawn())

	r.Release()
	r.Release()
	assert.Equal(t, []string{"texture", "program"}, gpu.deleted)
	assert.Equal(t, Uninitialized, r.State())
}

func TestResizeKeepsFrameAspect(t *testing.T) {
	r := New(&fakeGPU{}, logger.Nop())
	require.NoError(t, r.OnSurfaceCreated())
	r.OnSurfaceResized(640, 480)
	r.SubmitFrame(make([]byte, 1280*720*4), 1280, 720)
	require.True(t, r.OnDrawFrame())
	assert.InDelta(t, 1.3333334, r.Projection()[5], 1e-5)

	r.OnSurfaceResized(1280, 720)
	assert.Equal(t, Identity, r.Projection())
}

func TestLatestFrameWins(t *testing.T) {
	gpu := &fakeGPU{}
	r := New(gpu, logger.Nop())
	require.NoError(t, r.OnSurfaceCreated())

	for i := byte(1); i <= 3; i++ {
		r.SubmitFrame([]byte{i, i, i, i}, 1, 1)
	}
	assert.Len(t, r.Redraw(), 1)
	assert.True(t, r.OnDrawFrame())
	assert.Equal(t, byte(3), gpu.uploads[0].pix[0])
	assert.Equal(t, uint64(2), r.Skipped())
}

func TestConcurrentSubmit(t *testing.T) {
	gpu := &fakeGPU{}
	r := New(gpu, logger.Nop())
	require.NoError(t, r.OnSurfaceCreated())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v := byte(i)
			r.SubmitFrame([]byte{v, v, v, v, v, v, v, v}, 2, 1)
		}
	}()
	for i := 0; i < 1000; i++ {
		r.OnDrawFrame()
	}
	wg.Wait()
	r.OnDrawFrame()

	for _, u := range gpu.uploads {
		for _, b := range u.pix {
			require.Equal(t, u.pix[0], b, "torn frame")
		}
	}
}
