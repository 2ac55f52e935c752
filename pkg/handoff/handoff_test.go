package handoff

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgba(w, h int, v byte) []byte { return bytes.Repeat([]byte{v}, w*h*4) }

func TestTakeOnce(t *testing.T) {
	s := New()
	_, _, _, ok := s.TakeIfDirty()
	assert.False(t, ok)

	s.Publish(rgba(2, 2, 7), 2, 2)
	buf, w, h, ok := s.TakeIfDirty()
	require.True(t, ok)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, rgba(2, 2, 7), buf)

	_, _, _, ok = s.TakeIfDirty()
	assert.False(t, ok, "second take without publish")
}

func TestLatestWins(t *testing.T) {
	s := New()
	s.Publish(rgba(2, 2, 1), 2, 2)
	s.Publish(rgba(2, 2, 2), 2, 2)
	s.Publish(rgba(4, 2, 3), 4, 2)

	buf, w, h, ok := s.TakeIfDirty()
	require.True(t, ok)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, rgba(4, 2, 3), buf)
	assert.EqualValues(t, 2, s.Dropped())
	assert.EqualValues(t, 3, s.Published())
}

func TestCopyIn(t *testing.T) {
	s := New()
	src := rgba(2, 2, 1)
	s.Publish(src, 2, 2)
	src[0] = 99

	buf, _, _, ok := s.TakeIfDirty()
	require.True(t, ok)
	assert.Equal(t, byte(1), buf[0])
}

func TestScratchReuse(t *testing.T) {
	s := New()
	s.Publish(rgba(2, 2, 1), 2, 2)
	a, _, _, _ := s.TakeIfDirty()
	s.Publish(rgba(2, 2, 2), 2, 2)
	b, _, _, _ := s.TakeIfDirty()
	assert.Same(t, &a[0], &b[0])

	s.Publish(rgba(3, 3, 3), 3, 3)
	c, _, _, _ := s.TakeIfDirty()
	assert.Len(t, c, 3*3*4)
}

func TestConcurrentConsistency(t *testing.T) {
	s := New()
	sizes := [][2]int{{2, 2}, {4, 3}, {8, 8}, {16, 9}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			sz := sizes[i%len(sizes)]
			s.Publish(rgba(sz[0], sz[1], byte(i)), sz[0], sz[1])
		}
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	for {
		select {
		case <-done:
			return
		default:
		}
		if buf, w, h, ok := s.TakeIfDirty(); ok {
			require.Equal(t, w*h*4, len(buf))
			// a torn frame would mix two fill values
			require.Equal(t, bytes.Repeat(buf[:1], len(buf)), buf)
		}
	}
}

func BenchmarkHandoff(b *testing.B) {
	s := New()
	src := rgba(1280, 720, 1)
	for i := 0; i < b.N; i++ {
		s.Publish(src, 1280, 720)
		s.TakeIfDirty()
	}
	b.ReportAllocs()
}
