package pack

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Dimensions are the pixel size of the source image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultDimensions are used when the image cannot be read.
var DefaultDimensions = Dimensions{Width: 1200, Height: 800}

// Aspect returns width divided by height.
func (d Dimensions) Aspect() float64 {
	if d.Height == 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// ReadDimensions decodes only the image header. When the file is missing,
// unreadable, or not a PNG, JPEG or GIF it returns DefaultDimensions along
// with the reason.
func ReadDimensions(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultDimensions, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return DefaultDimensions, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return DefaultDimensions, image.ErrFormat
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
