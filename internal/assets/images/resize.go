package images

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FitMode controls how the aspect ratio and the target bounds interact.
type FitMode string

const (
	// FitInside keeps the aspect ratio and fits within the bounds. Images
	// already smaller than the bounds are left as they are.
	FitInside FitMode = "inside"
	// FitContain keeps the aspect ratio and pads the rest with transparency.
	FitContain FitMode = "contain"
	// FitCover keeps the aspect ratio and crops to fill the bounds.
	FitCover FitMode = "cover"
	// FitFill stretches to the exact bounds.
	FitFill FitMode = "fill"
)

// ParseFitMode parses a fit mode name. The empty string selects FitInside.
func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(s) {
	case "":
		return FitInside, nil
	case FitInside, FitContain, FitCover, FitFill:
		return FitMode(s), nil
	default:
		return "", fmt.Errorf("unknown fit mode %q", s)
	}
}

// Resize is a resize rule.
type Resize struct {
	Width  int
	Height int
	Fit    FitMode // Defaults to FitInside
}

// Validate checks that the bounds are positive and the fit mode is known.
func (r Resize) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid resize bounds %dx%d", r.Width, r.Height)
	}
	_, err := ParseFitMode(string(r.Fit))
	return err
}

// Apply resizes img according to the rule.
func (r Resize) Apply(img image.Image) *image.NRGBA {
	switch r.Fit {
	case FitCover:
		return imaging.Fill(img, r.Width, r.Height, imaging.Center, imaging.Lanczos)
	case FitFill:
		return imaging.Resize(img, r.Width, r.Height, imaging.Lanczos)
	case FitContain:
		w, h := containSize(img.Bounds().Dx(), img.Bounds().Dy(), r.Width, r.Height)
		scaled := imaging.Resize(img, w, h, imaging.Lanczos)
		canvas := imaging.New(r.Width, r.Height, color.NRGBA{})
		return imaging.PasteCenter(canvas, scaled)
	default:
		return imaging.Fit(img, r.Width, r.Height, imaging.Lanczos)
	}
}

func containSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return maxW, maxH
	}
	if srcW*maxH > srcH*maxW {
		return maxW, max(1, srcH*maxW/srcW)
	}
	return max(1, srcW*maxH/srcH), maxH
}
