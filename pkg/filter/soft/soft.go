// Package soft is a pure Go filter backend.
// It trades speed for having no native dependencies.
package soft

import (
	"time"

	"github.com/rtedge/rtedge/pkg/filter"
	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/rtedge/rtedge/pkg/logger"
)

const Name = "soft"

// EdgeThreshold is the Sobel magnitude (|gx|+|gy|) above which
// a pixel is considered an edge.
const EdgeThreshold = 128

func init() {
	filter.Register(Name, func(*logger.Logger) (filter.Filter, error) { return New(), nil })
}

type Soft struct {
	closed bool
}

func New() *Soft { return &Soft{} }

func (s *Soft) Process(nv21 []byte, w, h int, out []byte, mode frame.Mode) (float64, error) {
	if s.closed {
		return 0, filter.ErrClosed
	}
	if err := filter.Check(nv21, w, h, out); err != nil {
		return 0, err
	}
	start := time.Now()
	if mode == frame.ModeEdges {
		Edges(nv21[:w*h], w, h, out)
	} else {
		NV21ToRGBA(nv21, w, h, out)
	}
	return float64(time.Since(start).Nanoseconds()) / 1e6, nil
}

func (s *Soft) Close() error { s.closed = true; return nil }

// NV21ToRGBA converts with integer BT.601 limited range coefficients.
func NV21ToRGBA(nv21 []byte, w, h int, out []byte) {
	vu := nv21[w*h:]
	for y := 0; y < h; y++ {
		row := vu[(y/2)*w:]
		for x := 0; x < w; x++ {
			c := int(nv21[y*w+x]) - 16
			if c < 0 {
				c = 0
			}
			i := x &^ 1
			e := int(row[i]) - 128   // V
			d := int(row[i+1]) - 128 // U
			o := (y*w + x) * 4
			out[o] = clamp((298*c + 409*e + 128) >> 8)
			out[o+1] = clamp((298*c - 100*d - 208*e + 128) >> 8)
			out[o+2] = clamp((298*c + 516*d + 128) >> 8)
			out[o+3] = 0xff
		}
	}
}

// Edges writes white pixels where the luma gradient is strong and black
// elsewhere. The 1px border is always black.
func Edges(luma []byte, w, h int, out []byte) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v byte
			if x > 0 && y > 0 && x < w-1 && y < h-1 {
				if sobel(luma, w, x, y) > EdgeThreshold {
					v = 0xff
				}
			}
			o := (y*w + x) * 4
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, 0xff
		}
	}
}

func sobel(p []byte, w, x, y int) int {
	at := func(dx, dy int) int { return int(p[(y+dy)*w+x+dx]) }
	gx := at(1, -1) + 2*at(1, 0) + at(1, 1) - at(-1, -1) - 2*at(-1, 0) - at(-1, 1)
	gy := at(-1, 1) + 2*at(0, 1) + at(1, 1) - at(-1, -1) - 2*at(0, -1) - at(1, -1)
	return abs(gx) + abs(gy)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
