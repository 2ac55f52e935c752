package opencv

import (
	"testing"

	"github.com/rtedge/rtedge/pkg/filter"
	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	w, h := 32, 16
	in := make([]byte, frame.PackedSize(w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= w/2 {
				in[y*w+x] = 235
			} else {
				in[y*w+x] = 16
			}
		}
	}
	for i := w * h; i < len(in); i++ {
		in[i] = 128
	}

	o := New()
	defer func() { _ = o.Close() }()

	out := make([]byte, frame.RGBASize(w, h))
	ms, err := o.Process(in, w, h, out, frame.ModeRaw)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ms, 0.0)
	assert.Equal(t, byte(255), out[(w-1)*4+3], "alpha")
	assert.Greater(t, out[(w-1)*4], byte(200))
	assert.Less(t, out[0], byte(20))

	_, err = o.Process(in, w, h, out, frame.ModeEdges)
	require.NoError(t, err)
	assert.Equal(t, byte(0), out[(8*w+2)*4], "flat area")
}

func TestClosed(t *testing.T) {
	o := New()
	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
	_, err := o.Process(make([]byte, 6), 2, 2, make([]byte, 16), frame.ModeRaw)
	assert.ErrorIs(t, err, filter.ErrClosed)
}
