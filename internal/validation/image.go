package validation

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// Registers the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyImage       = errors.New("image payload is empty")
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrCorruptImage     = errors.New("image payload cannot be decoded")
	ErrImageTooLarge    = errors.New("image dimensions exceed the allowed maximum")
)

const (
	// MaxImageSide caps width and height in pixels.
	MaxImageSide = 10000
	// MaxImagePixels caps width*height, bounding the memory of a full decode.
	MaxImagePixels = 40_000_000
)

// ImageFormat describes an accepted image type.
type ImageFormat struct {
	MIME      string
	Extension string // Including the leading dot
}

// AllowedImageFormats is the allow-list of accepted photo types.
var AllowedImageFormats = []ImageFormat{
	{MIME: "image/jpeg", Extension: ".jpg"},
	{MIME: "image/png", Extension: ".png"},
	{MIME: "image/gif", Extension: ".gif"},
	{MIME: "image/webp", Extension: ".webp"},
}

// ValidateImageFormat sniffs the payload content (the declared file name and
// content type are ignored) and accepts only allow-listed formats that also
// decode.
func ValidateImageFormat(payload []byte) (ImageFormat, error) {
	if len(payload) == 0 {
		return ImageFormat{}, ErrEmptyImage
	}

	detected := mimetype.Detect(payload)

	var format ImageFormat
	found := false
	for _, f := range AllowedImageFormats {
		if detected.Is(f.MIME) {
			format = f
			found = true
			break
		}
	}
	if !found {
		return ImageFormat{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, detected.String())
	}

	// Header first: a tiny payload can declare dimensions whose decode would
	// allocate gigabytes.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return ImageFormat{}, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > MaxImageSide || cfg.Height > MaxImageSide ||
		cfg.Width*cfg.Height > MaxImagePixels {
		return ImageFormat{}, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	if _, err := imaging.Decode(bytes.NewReader(payload)); err != nil {
		return ImageFormat{}, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	return format, nil
}
