package capture

import (
	"context"
	"time"

	"github.com/rtedge/rtedge/pkg/frame"
)

// Pattern is a synthetic source producing a moving test card.
type Pattern struct {
	PatternConfig
	n int
}

type PatternConfig struct {
	Width, Height int
	Fps           float64
	// Padding adds bytes at the end of every row.
	Padding int
	// ChromaPixelStride 2 interleaves U and V in one buffer the way
	// semi-planar cameras do.
	ChromaPixelStride int
	// Frames stops the source after that many frames when positive.
	Frames int
}

func NewPattern(conf PatternConfig) *Pattern {
	if conf.Fps <= 0 {
		conf.Fps = 30
	}
	if conf.ChromaPixelStride != 2 {
		conf.ChromaPixelStride = 1
	}
	if conf.Padding < 0 {
		conf.Padding = 0
	}
	return &Pattern{PatternConfig: conf}
}

func (p *Pattern) Start(ctx context.Context, onFrame func(*frame.Capture)) error {
	var f frame.Capture
	p.alloc(&f)

	t := time.NewTicker(time.Duration(float64(time.Second) / p.Fps))
	defer t.Stop()
	for p.Frames <= 0 || p.n < p.Frames {
		select {
		case <-ctx.Done():
			return nil
		case ts := <-t.C:
			p.Fill(&f, p.n)
			f.Timestamp = ts
			onFrame(&f)
			p.n++
		}
	}
	return nil
}

func (p *Pattern) Close() error { return nil }

func (p *Pattern) alloc(f *frame.Capture) {
	w, h := p.Width, p.Height
	cw, ch := w/2, h/2
	ys := w + p.Padding
	f.Width, f.Height = w, h
	f.Planes[frame.Y] = frame.Plane{Data: make([]byte, ys*h), RowStride: ys, PixelStride: 1}

	cs := cw*p.ChromaPixelStride + p.Padding
	if p.ChromaPixelStride == 2 {
		// V plane starts one byte after U inside the same buffer
		uv := make([]byte, cs*ch+1)
		f.Planes[frame.U] = frame.Plane{Data: uv[:len(uv)-1], RowStride: cs, PixelStride: 2}
		f.Planes[frame.V] = frame.Plane{Data: uv[1:], RowStride: cs, PixelStride: 2}
		return
	}
	f.Planes[frame.U] = frame.Plane{Data: make([]byte, cs*ch), RowStride: cs, PixelStride: 1}
	f.Planes[frame.V] = frame.Plane{Data: make([]byte, cs*ch), RowStride: cs, PixelStride: 1}
}

// Fill draws frame n of the test card: a scrolling diagonal gradient with a
// bright square bouncing across it.
func (p *Pattern) Fill(f *frame.Capture, n int) {
	w, h := f.Width, f.Height
	side := max(min(w, h)/4, 2)
	sx := bounce(n*4, w-side)
	sy := bounce(n*3, h-side)

	y := f.Planes[frame.Y]
	for r := 0; r < h; r++ {
		row := y.Data[r*y.RowStride:]
		for c := 0; c < w; c++ {
			v := byte(c + r + n*2)
			if c >= sx && c < sx+side && r >= sy && r < sy+side {
				v = 235
			}
			row[c*y.PixelStride] = v
		}
	}

	u, v := f.Planes[frame.U], f.Planes[frame.V]
	cw, ch := w/2, h/2
	for r := 0; r < ch; r++ {
		for c := 0; c < cw; c++ {
			u.Data[r*u.RowStride+c*u.PixelStride] = byte(c * 255 / max(cw, 1))
			v.Data[r*v.RowStride+c*v.PixelStride] = byte(r * 255 / max(ch, 1))
		}
	}
}

func bounce(pos, span int) int {
	if span <= 0 {
		return 0
	}
	pos %= 2 * span
	if pos > span {
		return 2*span - pos
	}
	return pos
}
