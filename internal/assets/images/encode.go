package images

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

const sharpenSigma = 0.5

// encode renders img in the given format. Sharpening only applies to webp,
// where it allows a lower quality for the same legibility.
func encode(img image.Image, format Format, sharpen bool) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case PNG:
		paletted, err := quantizeWithin(img, PNGQuality)
		if err != nil {
			return nil, fmt.Errorf("quantize png: %w", err)
		}
		if err := imaging.Encode(&buf, paletted, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}

	case JPG:
		data, err := encodeJPEG(img)
		if err != nil {
			return nil, err
		}
		return data, nil

	case WebP:
		quality := webpQuality
		if sharpen {
			img = imaging.Sharpen(img, sharpenSigma)
			quality = webpSharpenedQuality
		}
		if err := encodeWebP(&buf, img, quality); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown image format %q", format)
	}

	return buf.Bytes(), nil
}
