// Package frame holds the pixel containers passed between the capture,
// conversion, filter and render stages.
package frame

import (
	"fmt"
	"strings"
	"time"
)

// Plane is one image plane of a captured frame.
// RowStride is the distance in bytes between the starts of two rows,
// PixelStride is the distance between two neighbour samples of a row.
type Plane struct {
	Data        []byte
	RowStride   int
	PixelStride int
}

// Plane indexes of a planar YUV capture.
const (
	Y = iota
	U
	V
)

// Capture is a raw planar YUV 4:2:0 frame as delivered by a capture source.
// It's only valid for the duration of a single delivery callback.
type Capture struct {
	Width, Height int
	Planes        [3]Plane
	Timestamp     time.Time
}

func (c *Capture) String() string {
	return fmt.Sprintf("%vx%v y[%v/%v] u[%v/%v] v[%v/%v]", c.Width, c.Height,
		c.Planes[Y].RowStride, c.Planes[Y].PixelStride,
		c.Planes[U].RowStride, c.Planes[U].PixelStride,
		c.Planes[V].RowStride, c.Planes[V].PixelStride)
}

// PackedSize returns the size of an NV21 (Y + interleaved VU) frame.
func PackedSize(w, h int) int { return w*h + w*h/2 }

// RGBASize returns the size of a 4 bytes per pixel frame.
func RGBASize(w, h int) int { return w * h * 4 }

// Mode selects the filter rendering style.
type Mode uint32

const (
	// ModeEdges highlights detected structure.
	ModeEdges Mode = iota
	// ModeRaw shows the camera image as is.
	ModeRaw
)

func (m Mode) String() string {
	switch m {
	case ModeEdges:
		return "Edges"
	case ModeRaw:
		return "Raw"
	}
	return fmt.Sprintf("Mode(%d)", uint32(m))
}

// Toggle switches between the edges and raw modes.
func (m Mode) Toggle() Mode {
	if m == ModeEdges {
		return ModeRaw
	}
	return ModeEdges
}

// LookupMode converts a config value into a Mode, ok is false for unknown
// values. An empty value is edges.
func LookupMode(s string) (m Mode, ok bool) {
	switch strings.ToLower(s) {
	case "", "edges":
		return ModeEdges, true
	case "raw":
		return ModeRaw, true
	}
	return ModeEdges, false
}

// ParseMode converts a config value into a Mode.
// Unknown values fall back to edges.
func ParseMode(s string) Mode {
	m, _ := LookupMode(s)
	return m
}
