package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	_defaultThumbWidth  = 300
	_defaultThumbHeight = 300
	_jpegQuality        = 80
)

type ImageProcessor struct {
	width  int
	height int
}

func New(opts ...Option) *ImageProcessor {
	p := &ImageProcessor{
		width:  _defaultThumbWidth,
		height: _defaultThumbHeight,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Thumbnail scales the image down to fit the configured box, keeping the
// aspect ratio, and re-encodes it in the source format. Decoding and
// resampling are CPU bound; ctx is checked between the two stages.
func (p *ImageProcessor) Thumbnail(ctx context.Context, contentType string, data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - decodeImage: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail: %w", err)
	}

	thumb := imaging.Fit(img, p.width, p.height, imaging.Lanczos)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail: %w", err)
	}

	res, err := encodeImage(thumb, contentType)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - encodeImage: %w", err)
	}

	return res, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - decodeImage - imaging.Decode: %w", err)
	}

	return img, nil
}

func encodeImage(img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	var format imaging.Format

	switch contentType {
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	case "image/bmp":
		format = imaging.BMP
	case "image/tiff":
		format = imaging.TIFF
	default:
		format = imaging.JPEG
	}

	err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(_jpegQuality))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
