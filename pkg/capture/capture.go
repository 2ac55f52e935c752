// Package capture provides frame sources for the pipeline.
//
// A source delivers every frame to a callback synchronously and considers
// the frame released once the callback returns, so callbacks must not keep
// references to the frame or its planes.
package capture

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/rtedge/rtedge/pkg/frame"
)

var ErrNoDevice = errors.New("no capture device")

type Source interface {
	// Start delivers frames until ctx is done or the source ends.
	Start(ctx context.Context, onFrame func(*frame.Capture)) error
	Close() error
}

// FromYCbCr describes a 4:2:0 image as a capture without copying.
func FromYCbCr(dst *frame.Capture, img *image.YCbCr, ts time.Time) {
	b := img.Rect
	yo, co := img.YOffset(b.Min.X, b.Min.Y), img.COffset(b.Min.X, b.Min.Y)
	dst.Width, dst.Height = b.Dx(), b.Dy()
	dst.Planes[frame.Y] = frame.Plane{Data: img.Y[yo:], RowStride: img.YStride, PixelStride: 1}
	dst.Planes[frame.U] = frame.Plane{Data: img.Cb[co:], RowStride: img.CStride, PixelStride: 1}
	dst.Planes[frame.V] = frame.Plane{Data: img.Cr[co:], RowStride: img.CStride, PixelStride: 1}
	dst.Timestamp = ts
}
