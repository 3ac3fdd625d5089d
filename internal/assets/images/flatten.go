package images

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Background is the colour transparent pixels are flattened onto.
var Background = color.NRGBA{R: 0xFF, G: 0xE1, B: 0x64, A: 0xFF}

// Flatten composites img over an opaque Background.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), Background)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
