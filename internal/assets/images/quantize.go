package images

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ericpauley/go-quantize/quantize"
)

// ErrQualityTooLow is returned when even a full palette cannot reach the
// minimum quality of the window.
var ErrQualityTooLow = errors.New("palette quality below minimum")

const maxPaletteSize = 256

// QualityWindow is a pngquant style quality range (0-100). The palette is
// the smallest that reaches Max; results below Min are rejected.
type QualityWindow struct {
	Min int
	Max int
}

// PNGQuality is the window used for png variants.
var PNGQuality = QualityWindow{Min: 30, Max: 60}

// qualityToMSE maps a quality to the largest mean squared error it accepts,
// on the same curve pngquant uses.
func qualityToMSE(quality int) float64 {
	if quality <= 0 {
		return math.MaxFloat64
	}
	if quality >= 100 {
		return 0
	}
	q := float64(quality)
	fudge := math.Max(0, 0.016/(0.001+q)-0.001)
	return fudge + 2.5/math.Pow(210+q, 1.2)*(100.1-q)/100
}

// quantizeWithin maps img onto the smallest median-cut palette meeting
// window.Max, without dithering.
func quantizeWithin(img image.Image, window QualityWindow) (*image.Paletted, error) {
	target := qualityToMSE(window.Max)
	limit := qualityToMSE(window.Min)

	best, mse := remap(img, maxPaletteSize)
	if mse > limit {
		return nil, ErrQualityTooLow
	}
	if mse > target {
		return best, nil
	}

	lo, hi := 2, maxPaletteSize
	for lo < hi {
		mid := (lo + hi) / 2
		candidate, candidateMSE := remap(img, mid)
		if candidateMSE <= target {
			best, hi = candidate, mid
		} else {
			lo = mid + 1
		}
	}
	return best, nil
}

func remap(img image.Image, colors int) (*image.Paletted, float64) {
	q := quantize.MedianCutQuantizer{AddTransparent: hasAlpha(img)}
	palette := q.Quantize(make(color.Palette, 0, colors), img)

	bounds := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), palette)
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return dst, meanSquaredError(img, dst)
}

// meanSquaredError averages the per pixel sum of squared channel
// differences, premultiplied and scaled to 0-1.
func meanSquaredError(src image.Image, dst *image.Paletted) float64 {
	bounds := src.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r1, g1, b1, a1 := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			r2, g2, b2, a2 := dst.At(x, y).RGBA()
			sum += channelDiff(r1, r2) + channelDiff(g1, g2) + channelDiff(b1, b2) + channelDiff(a1, a2)
		}
	}
	return sum / float64(pixels)
}

func channelDiff(a, b uint32) float64 {
	d := (float64(a) - float64(b)) / 0xffff
	return d * d
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
