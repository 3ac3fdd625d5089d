package images

import (
	"fmt"
	"slices"
	"strings"
)

// Format is an output file format.
type Format string

const (
	PNG  Format = "png"
	JPG  Format = "jpg"
	WebP Format = "webp"
)

// ParseFormat parses a format name. "jpeg" is accepted as an alias of jpg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPG, nil
	case "webp":
		return WebP, nil
	default:
		return "", fmt.Errorf("unknown image format %q", s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// needsFlatten reports whether the alpha channel must be removed before
// encoding: jpg has no alpha, and webp-only outputs are flattened so the
// transparent card corners get a fill colour.
func needsFlatten(formats []Format) bool {
	if slices.Contains(formats, JPG) {
		return true
	}
	return len(formats) == 1 && formats[0] == WebP
}
