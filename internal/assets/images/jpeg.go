package images

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const jpegQuality = 50

var vipsOnce sync.Once

// startVips initializes libvips once per process and routes its warnings
// through logger.
func startVips(logger *zap.Logger) {
	vipsOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, message string) {
			logger.Warn("libvips", zap.String("domain", domain), zap.String("message", message))
		}, vips.LogLevelWarning)
		vips.Startup(&vips.Config{})
	})
}

// encodeJPEG writes img through libvips with 4:4:4 chroma, trellis
// quantization and overshoot deringing.
func encodeJPEG(img image.Image) ([]byte, error) {
	var src bytes.Buffer
	if err := imaging.Encode(&src, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return nil, fmt.Errorf("stage jpg source: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(src.Bytes())
	if err != nil {
		return nil, fmt.Errorf("load jpg source: %w", err)
	}
	defer ref.Close()

	if ref.HasAlpha() {
		if err := ref.Flatten(&vips.Color{R: Background.R, G: Background.G, B: Background.B}); err != nil {
			return nil, fmt.Errorf("flatten jpg source: %w", err)
		}
	}

	params := vips.NewJpegExportParams()
	params.StripMetadata = true
	params.Quality = jpegQuality
	params.SubsampleMode = vips.VipsForeignSubsampleOff
	params.TrellisQuant = true
	params.OvershootDeringing = true

	data, _, err := ref.ExportJpeg(params)
	if err != nil {
		return nil, fmt.Errorf("export jpg: %w", err)
	}
	return data, nil
}
