package yuv

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planar makes a capture with the given luma padding and chroma pixel stride.
// Luma samples are y*w+x, chroma samples are distinct per plane.
func planar(w, h, pad, cps int) *frame.Capture {
	ys := w + pad
	yp := make([]byte, ys*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			yp[y*ys+x] = byte(y*w + x)
		}
		for x := w; x < ys; x++ {
			yp[y*ys+x] = 0xEE
		}
	}
	cw, ch := w/2, h/2
	cs := cw * cps
	up, vp := make([]byte, cs*ch), make([]byte, cs*ch)
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			up[y*cs+x*cps] = byte(100 + y*cw + x)
			vp[y*cs+x*cps] = byte(200 + y*cw + x)
		}
	}
	return &frame.Capture{
		Width: w, Height: h,
		Planes: [3]frame.Plane{
			{Data: yp, RowStride: ys, PixelStride: 1},
			{Data: up, RowStride: cs, PixelStride: cps},
			{Data: vp, RowStride: cs, PixelStride: cps},
		},
	}
}

func TestBulkLuma(t *testing.T) {
	w, h := 64, 48
	f := planar(w, h, 0, 1)
	rand.New(rand.NewSource(1)).Read(f.Planes[frame.Y].Data)

	out, err := NewConverter().Process(f)
	require.NoError(t, err)
	require.Len(t, out, w*h*3/2)
	assert.True(t, bytes.Equal(f.Planes[frame.Y].Data, out[:w*h]))
}

func TestPaddedLuma(t *testing.T) {
	w, h, pad := 6, 4, 10
	out, err := NewConverter().Process(planar(w, h, pad, 1))
	require.NoError(t, err)
	for i := 0; i < w*h; i++ {
		assert.Equalf(t, byte(i), out[i], "luma %v", i)
	}
	assert.NotContains(t, string(out[:w*h]), string([]byte{0xEE}))
}

func TestLumaPixelStride(t *testing.T) {
	w, h := 4, 2
	f := planar(w, h, 0, 1)
	yp := make([]byte, w*2*h)
	for i := range f.Planes[frame.Y].Data {
		yp[i*2] = f.Planes[frame.Y].Data[i]
	}
	f.Planes[frame.Y] = frame.Plane{Data: yp, RowStride: w * 2, PixelStride: 2}

	out, err := NewConverter().Process(f)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7}, out[:w*h])
}

func TestChromaInterleave(t *testing.T) {
	tests := []struct {
		name string
		cps  int
	}{
		{name: "planar", cps: 1},
		{name: "semi-planar", cps: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewConverter().Process(planar(4, 4, 0, tt.cps))
			require.NoError(t, err)
			// 2x2 blocks in row-major order: V, U per block
			want := []byte{200, 100, 201, 101, 202, 102, 203, 103}
			assert.Equal(t, want, out[16:])
		})
	}
}

func TestTruncatedPlanes(t *testing.T) {
	w, h := 8, 4
	f := planar(w, h, 4, 2)
	f.Planes[frame.Y].Data = f.Planes[frame.Y].Data[:len(f.Planes[frame.Y].Data)-6]
	// the last chroma row of a semi-planar buffer usually lacks its padding
	f.Planes[frame.U].Data = f.Planes[frame.U].Data[:len(f.Planes[frame.U].Data)-5]
	f.Planes[frame.V].Data = f.Planes[frame.V].Data[:5]

	var out []byte
	require.NotPanics(t, func() { out = ToNV21(nil, f) })
	require.Len(t, out, w*h*3/2)
	// the last luma row lost 2 of 8 samples
	assert.Equal(t, []byte{24, 25, 26, 27, 28, 29, 0, 0}, out[24:32])
	// first chroma row: V has only 5 bytes (samples 0,2,4), U intact
	assert.Equal(t, []byte{200, 100, 201, 101, 202, 102, 0, 103}, out[32:40])
}

func TestGarbageStrides(t *testing.T) {
	f := &frame.Capture{Width: 4, Height: 4, Planes: [3]frame.Plane{
		{Data: []byte{1, 2, 3}, RowStride: -4, PixelStride: 0},
		{Data: nil, RowStride: 0, PixelStride: -1},
		{Data: []byte{9}, RowStride: 1000, PixelStride: 1000},
	}}
	require.NotPanics(t, func() { ToNV21(nil, f) })
}

func TestInvalidSize(t *testing.T) {
	c := NewConverter()
	for _, s := range [][2]int{{0, 4}, {4, 0}, {3, 4}, {4, 5}, {-2, 2}} {
		_, err := c.Process(&frame.Capture{Width: s[0], Height: s[1]})
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

func TestBufferReuse(t *testing.T) {
	c := NewConverter()
	a, err := c.Process(planar(8, 8, 0, 1))
	require.NoError(t, err)
	b, err := c.Process(planar(8, 8, 2, 2))
	require.NoError(t, err)
	assert.Same(t, &a[0], &b[0])

	d, err := c.Process(planar(16, 8, 0, 1))
	require.NoError(t, err)
	assert.Len(t, d, 16*8*3/2)
}

func BenchmarkConvert(b *testing.B) {
	tests := []struct {
		name     string
		pad, cps int
	}{
		{name: "bulk", pad: 0, cps: 1},
		{name: "padded", pad: 64, cps: 1},
		{name: "semi-planar", pad: 64, cps: 2},
	}
	for _, bn := range tests {
		f := planar(1280, 720, bn.pad, bn.cps)
		c := NewConverter()
		b.Run(bn.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = c.Process(f)
			}
			b.ReportAllocs()
		})
	}
}
