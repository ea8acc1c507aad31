// Package imageproc converts uploaded images of any supported format into the storage format.
package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // регистрируем декодер webp для image.Decode
)

// TargetFormat - формат, в котором хранятся все загрузки
const TargetFormat = imaging.PNG

// Limits - ограничения на входную картинку, 0 - без ограничения
type Limits struct {
	// MaxDimension - большая сторона результата, больше - уменьшаем
	MaxDimension int
	// MaxPixels - ширина*высота исходника по заголовку, больше - отказ до декодирования
	MaxPixels int64
}

// Normalize decodes data (JPEG, PNG, GIF first frame, WEBP, BMP, TIFF), applies EXIF
// orientation, shrinks it to fit MaxDimension x MaxDimension and re-encodes as PNG.
// Images whose header declares more than MaxPixels pixels are never decoded.
func Normalize(data []byte, lim Limits) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data: %w", model.ErrInvalidImage)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %v: %w", err, model.ErrInvalidImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("zero-sized image: %w", model.ErrInvalidImage)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); lim.MaxPixels > 0 && pixels > lim.MaxPixels {
		return nil, fmt.Errorf("image is %dx%d, over %d pixels: %w", cfg.Width, cfg.Height, lim.MaxPixels, model.ErrPayloadTooLarge)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to DEcode source image: %v: %w", err, model.ErrInvalidImage)
	}

	b := img.Bounds()
	// уменьшаем только если картинка больше лимита, пропорции сохраняются
	if maxDim := lim.MaxDimension; maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, TargetFormat); err != nil {
		return nil, fmt.Errorf("failed to ENcode result image: %w", err)
	}
	return buf.Bytes(), nil
}
