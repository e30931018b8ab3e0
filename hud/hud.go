// Package hud draws the render-time overlay onto finished frames and
// scales frames for output.
package hud

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	margin     = 4
	lineHeight = 15
)

var (
	backing = image.NewUniform(color.RGBA{A: 160})
	ink     = image.NewUniform(color.RGBA{R: 255, G: 214, B: 64, A: 255})
)

// Stamp writes lines in the top-left corner of img over a translucent box.
func Stamp(img draw.Image, lines ...string) {
	if len(lines) == 0 {
		return
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: ink, Face: face}

	width := 0
	for _, l := range lines {
		width = max(width, d.MeasureString(l).Ceil())
	}
	origin := img.Bounds().Min
	box := image.Rect(0, 0, width+2*margin, len(lines)*lineHeight+2*margin).Add(origin)
	draw.Draw(img, box.Intersect(img.Bounds()), backing, image.Point{}, draw.Over)

	for i, l := range lines {
		d.Dot = fixed.P(origin.X+margin, origin.Y+margin+face.Ascent+i*lineHeight)
		d.DrawString(l)
	}
}

// Scale returns img resampled to fit within w × h, keeping its aspect ratio.
func Scale(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	sx := float64(w) / float64(b.Dx())
	sy := float64(h) / float64(b.Dy())
	s := min(sx, sy)

	dw := max(1, int(float64(b.Dx())*s+0.5))
	dh := max(1, int(float64(b.Dy())*s+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
