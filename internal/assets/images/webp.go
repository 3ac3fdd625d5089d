package images

/*
#cgo linux LDFLAGS: -lwebp
#cgo darwin pkg-config: libwebp
#include <webp/encode.h>

static void set_alpha_quality(void* config, int quality) {
	((WebPConfig*)config)->alpha_quality = quality;
}
*/
import "C"

import (
	"fmt"
	"image"
	"io"
	"unsafe"

	"github.com/kolesa-team/go-webp/encoder"
)

const (
	webpQuality          = 70
	webpSharpenedQuality = 60
	webpAlphaQuality     = 30
	webpMethod           = 6
)

// encodeWebP writes img as lossy webp with sharp YUV conversion, effort 6
// and a lossy alpha plane.
func encodeWebP(w io.Writer, img image.Image, quality int) error {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return fmt.Errorf("webp options: %w", err)
	}
	options.Method = webpMethod
	options.UseSharpYuv = true

	config, err := options.GetConfig()
	if err != nil {
		return fmt.Errorf("webp config: %w", err)
	}

	enc, err := encoder.NewEncoder(img, options)
	if err != nil {
		return fmt.Errorf("webp encoder: %w", err)
	}

	// The encoder keeps the options' config. Alpha quality has no exported
	// field, so it is set on the validated config before encoding.
	C.set_alpha_quality(unsafe.Pointer(config), C.int(webpAlphaQuality))

	return enc.Encode(w)
}
