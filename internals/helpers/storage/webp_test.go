package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/chai2010/webp"
)

type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestConvertToWebPKeepsSmallImageSize(t *testing.T) {
	data := makePNG(t, 64, 48)

	out, err := ConvertToWebP(memFile{bytes.NewReader(data)}, "valid_id.png")
	if err != nil {
		t.Fatalf("ConvertToWebP: %v", err)
	}

	img, err := webp.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode webp: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("dimensions changed: got %dx%d", b.Dx(), b.Dy())
	}
}

func TestConvertToWebPDownscalesOversized(t *testing.T) {
	t.Setenv("IMAGE_WEBP_MAX_W", "100")
	t.Setenv("IMAGE_WEBP_MAX_H", "100")

	data := makePNG(t, 400, 200)

	out, err := ConvertToWebP(memFile{bytes.NewReader(data)}, "cedula.png")
	if err != nil {
		t.Fatalf("ConvertToWebP: %v", err)
	}

	img, err := webp.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode webp: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50 after downscale, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestConvertToWebPRejectsNonImage(t *testing.T) {
	data := []byte("definitely not an image")

	_, err := ConvertToWebP(memFile{bytes.NewReader(data)}, "notes.txt")
	if err == nil {
		t.Fatal("expected error for non-image input")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestThumbnailWebPFitsInsideBox(t *testing.T) {
	data := makePNG(t, 800, 600)

	out, err := ThumbnailWebP(data, "valid_id.png", 240)
	if err != nil {
		t.Fatalf("ThumbnailWebP: %v", err)
	}

	img, err := webp.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode webp: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 240 || b.Dy() != 180 {
		t.Fatalf("expected 240x180 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestThumbnailWebPDefaultSide(t *testing.T) {
	data := makePNG(t, 500, 500)

	out, err := ThumbnailWebP(data, "photo.png", 0)
	if err != nil {
		t.Fatalf("ThumbnailWebP: %v", err)
	}

	img, err := webp.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode webp: %v", err)
	}
	if got := img.Bounds().Dx(); got != 240 {
		t.Fatalf("expected default side 240, got %d", got)
	}
}
