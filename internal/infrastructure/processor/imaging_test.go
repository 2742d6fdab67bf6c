package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func TestThumbnailFitsBox(t *testing.T) {
	p := New(Size(100, 100))

	out, err := p.Thumbnail(context.Background(), "image/png", testPNG(t, 400, 200))
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("thumbnail is not decodable: %s", err)
	}
	if format != "png" {
		t.Errorf("Expected png output, got %s", format)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("Expected 100x50 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestThumbnailDefaultsToJPEG(t *testing.T) {
	p := New()

	out, err := p.Thumbnail(context.Background(), "application/octet-stream", testPNG(t, 20, 20))
	if err != nil {
		t.Fatalf("Unexpected error %s", err)
	}

	if _, err := imaging.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("thumbnail is not decodable: %s", err)
	}
	if !bytes.HasPrefix(out, []byte{0xFF, 0xD8}) {
		t.Error("Expected JPEG magic bytes")
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	p := New()

	if _, err := p.Thumbnail(context.Background(), "image/png", []byte("not an image")); err == nil {
		t.Error("Expected decode error")
	}
}

func TestThumbnailHonoursCancelledContext(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Thumbnail(ctx, "image/png", testPNG(t, 10, 10)); err == nil {
		t.Error("Expected context error")
	}
}
