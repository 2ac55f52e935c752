// Package opencv is the OpenCV (gocv) filter backend.
//
// Edges mode runs grayscale, 5x5 Gaussian blur and Canny edge detection,
// raw mode only converts the colors.
package opencv

import (
	"fmt"
	"image"
	"time"

	"github.com/rtedge/rtedge/pkg/filter"
	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/rtedge/rtedge/pkg/logger"
	"gocv.io/x/gocv"
)

const Name = "opencv"

const (
	blurSize  = 5
	blurSigma = 1.4
	cannyLow  = 50
	cannyHigh = 150
)

func init() {
	filter.Register(Name, func(log *logger.Logger) (filter.Filter, error) {
		log.Module("opencv").Info().Msgf("OpenCV %v, gocv %v", gocv.OpenCVVersion(), gocv.Version())
		return New(), nil
	})
}

// OpenCV keeps its intermediate matrices between calls,
// OpenCV reallocates them only when the frame size changes.
type OpenCV struct {
	bgr, gray, blur, edges, rgba gocv.Mat
	closed                       bool
}

func New() *OpenCV {
	return &OpenCV{
		bgr:   gocv.NewMat(),
		gray:  gocv.NewMat(),
		blur:  gocv.NewMat(),
		edges: gocv.NewMat(),
		rgba:  gocv.NewMat(),
	}
}

func (o *OpenCV) Process(nv21 []byte, w, h int, out []byte, mode frame.Mode) (float64, error) {
	if o.closed {
		return 0, filter.ErrClosed
	}
	if err := filter.Check(nv21, w, h, out); err != nil {
		return 0, err
	}
	start := time.Now()

	src, err := gocv.NewMatFromBytes(h+h/2, w, gocv.MatTypeCV8UC1, nv21[:frame.PackedSize(w, h)])
	if err != nil {
		return 0, fmt.Errorf("nv21 mat: %w", err)
	}
	defer func() { _ = src.Close() }()

	gocv.CvtColor(src, &o.bgr, gocv.ColorYUVToBGRNV21)
	if mode == frame.ModeEdges {
		gocv.CvtColor(o.bgr, &o.gray, gocv.ColorBGRToGray)
		gocv.GaussianBlur(o.gray, &o.blur, image.Pt(blurSize, blurSize), blurSigma, blurSigma, gocv.BorderDefault)
		gocv.Canny(o.blur, &o.edges, cannyLow, cannyHigh)
		// a gray pixel is the same in BGRA and RGBA
		gocv.CvtColor(o.edges, &o.rgba, gocv.ColorGrayToBGRA)
	} else {
		gocv.CvtColor(o.bgr, &o.rgba, gocv.ColorBGRToRGBA)
	}

	b := o.rgba.ToBytes()
	if len(b) != len(out) {
		return 0, fmt.Errorf("%w: opencv produced %v bytes", filter.ErrBufferSize, len(b))
	}
	copy(out, b)
	return float64(time.Since(start).Nanoseconds()) / 1e6, nil
}

func (o *OpenCV) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	for _, m := range []*gocv.Mat{&o.bgr, &o.gray, &o.blur, &o.edges, &o.rgba} {
		if err := m.Close(); err != nil {
			return err
		}
	}
	return nil
}
