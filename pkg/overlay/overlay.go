// Package overlay draws the statistics text over rendered frames.
package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const pad = 4

var background = image.NewUniform(color.RGBA{A: 0xa0})

// Draw writes lines of text into the top-left corner of an RGBA frame.
func Draw(pix []byte, w, h int, lines []string) {
	if len(lines) == 0 || len(pix) < w*h*4 {
		return
	}
	img := &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	face := basicfont.Face7x13
	m := face.Metrics()
	lh := m.Height.Ceil()

	width := 0
	for _, l := range lines {
		width = max(width, font.MeasureString(face, l).Ceil())
	}
	box := image.Rect(0, 0, width+2*pad, len(lines)*lh+2*pad).Intersect(img.Rect)
	draw.Draw(img, box, background, image.Point{}, draw.Over)

	d := font.Drawer{Dst: img, Src: image.White, Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(pad, pad+i*lh+m.Ascent.Ceil())
		d.DrawString(l)
	}
}
