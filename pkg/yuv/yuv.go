// Package yuv repacks planar YUV 4:2:0 captures into the NV21 layout
// (full luma plane followed by interleaved V/U pairs) expected by filters.
package yuv

import (
	"errors"
	"fmt"

	"github.com/rtedge/rtedge/pkg/frame"
)

var ErrInvalidSize = errors.New("invalid frame size")

// Converter converts captures into its own reusable buffer,
// so the steady state (same resolution) doesn't allocate.
type Converter struct {
	buf []byte
}

func NewConverter() *Converter { return &Converter{} }

// Process converts a capture into NV21.
// The returned slice is valid until the next call of Process.
func (c *Converter) Process(f *frame.Capture) ([]byte, error) {
	if err := CheckSize(f.Width, f.Height); err != nil {
		return nil, err
	}
	size := frame.PackedSize(f.Width, f.Height)
	if len(c.buf) != size {
		c.buf = make([]byte, size)
	}
	c.buf = ToNV21(c.buf, f)
	return c.buf, nil
}

// CheckSize rejects dimensions that can't be 4:2:0 subsampled without loss.
func CheckSize(w, h int) error {
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return fmt.Errorf("%w: %vx%v", ErrInvalidSize, w, h)
	}
	return nil
}

// ToNV21 writes the capture into dst (grown if needed) and returns it.
// Plane data shorter than its declared strides is never read past its end,
// the missing samples are zeroed instead.
func ToNV21(dst []byte, f *frame.Capture) []byte {
	w, h := f.Width, f.Height
	size := frame.PackedSize(w, h)
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]
	luma(dst[:w*h], f.Planes[frame.Y], w, h)
	chroma(dst[w*h:], f.Planes[frame.U], f.Planes[frame.V], w, h)
	return dst
}

func luma(dst []byte, p frame.Plane, w, h int) {
	if p.PixelStride == 1 && p.RowStride == w {
		n := copy(dst, p.Data)
		clear(dst[n:])
		return
	}
	ps := max(p.PixelStride, 1)
	for y := 0; y < h; y++ {
		out := dst[y*w : (y+1)*w]
		row := span(p.Data, y*p.RowStride, p.RowStride)
		if ps == 1 {
			n := copy(out, row)
			clear(out[n:])
			continue
		}
		x := 0
		for ; x < w && x*ps < len(row); x++ {
			out[x] = row[x*ps]
		}
		clear(out[x:])
	}
}

// chroma interleaves U and V as V,U pairs, one output row per two source rows.
func chroma(dst []byte, u, v frame.Plane, w, h int) {
	cw, ch := w/2, h/2
	ups, vps := max(u.PixelStride, 1), max(v.PixelStride, 1)
	for y := 0; y < ch; y++ {
		out := dst[y*w : (y+1)*w]
		ur := span(u.Data, y*u.RowStride, u.RowStride)
		vr := span(v.Data, y*v.RowStride, v.RowStride)
		for x := 0; x < cw; x++ {
			out[2*x] = at(vr, x*vps)
			out[2*x+1] = at(ur, x*ups)
		}
	}
}

// span returns min(n, remaining) bytes of b starting at off.
func span(b []byte, off, n int) []byte {
	if n <= 0 || off < 0 || off >= len(b) {
		return nil
	}
	return b[off:min(off+n, len(b))]
}

func at(b []byte, i int) byte {
	if i < len(b) {
		return b[i]
	}
	return 0
}
