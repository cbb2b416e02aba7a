package codec_test

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/aryapradana/galeri/internal/codec"
)

func TestNormalizePNGToJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	out, err := codec.Normalize(buf.Bytes())
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if len(out) < 2 || out[0] != 0xff || out[1] != 0xd8 {
		t.Fatalf("expected JPEG output, got leading bytes %x", out[:2])
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode normalized output: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("expected bounds %v, got %v", img.Bounds(), decoded.Bounds())
	}
}

func TestNormalizeJPEGStaysJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	out, err := codec.Normalize(buf.Bytes())
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(out) < 2 || out[0] != 0xff || out[1] != 0xd8 {
		t.Fatalf("expected JPEG output, got leading bytes %x", out[:2])
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := codec.Normalize([]byte("not an image at all")); err == nil {
		t.Fatalf("expected error for non-image data")
	}
}

func TestTakenAtWithoutEXIF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	if got := codec.TakenAt(buf.Bytes()); got != nil {
		t.Fatalf("expected nil for image without EXIF, got %v", got)
	}
}
