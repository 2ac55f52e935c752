package pipeline

import "github.com/rtedge/rtedge/pkg/frame"

// OutputBuffer holds the RGBA destination of the filter.
// The buffer is owned by the processing goroutine.
type OutputBuffer struct {
	buf []byte
}

// Obtain returns a zeroed buffer of exactly w*h*4 bytes.
// The same buffer is returned while the size stays the same.
func (o *OutputBuffer) Obtain(w, h int) []byte {
	size := frame.RGBASize(w, h)
	if len(o.buf) != size {
		o.buf = make([]byte, size)
		return o.buf
	}
	clear(o.buf)
	return o.buf
}
