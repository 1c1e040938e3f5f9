package watermark

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPlacement_CenteredAtEightyPercentWidth(t *testing.T) {
	w, h, x, y := Placement(1000, 500, 400, 200)
	if w != 800 || h != 400 {
		t.Errorf("expected 800x400 watermark, got %dx%d", w, h)
	}
	if x != 100 || y != 50 {
		t.Errorf("expected offset (100,50), got (%d,%d)", x, y)
	}
}

func TestPlacement_SameRuleForPortrait(t *testing.T) {
	w, h, x, y := Placement(500, 1000, 400, 200)
	if w != 400 || h != 200 {
		t.Errorf("expected 400x200 watermark, got %dx%d", w, h)
	}
	if x != 50 || y != 400 {
		t.Errorf("expected offset (50,400), got (%d,%d)", x, y)
	}
}

func TestCompose_ProducesOpaqueJPEGOfSourceSize(t *testing.T) {
	src := encodePNG(t, 100, 60, color.RGBA{R: 200, G: 10, B: 10, A: 255})
	mark := encodePNG(t, 40, 20, color.RGBA{B: 200, A: 128})

	out, err := Compose(src, mark)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a decodable jpeg: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("expected 100x60 output, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCompose_RejectsNonImagePayloads(t *testing.T) {
	valid := encodePNG(t, 10, 10, color.White)

	if _, err := Compose([]byte("not an image"), valid); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage for bad source, got %v", err)
	}
	if _, err := Compose(valid, []byte("not an image")); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage for bad watermark, got %v", err)
	}
}

func TestValidate_SizeAndFormat(t *testing.T) {
	valid := encodePNG(t, 10, 10, color.White)

	if err := Validate(valid, len(valid)); err != nil {
		t.Errorf("expected valid image to pass, got %v", err)
	}
	if err := Validate(valid, len(valid)-1); err == nil {
		t.Error("expected oversized payload to be rejected")
	}
	if err := Validate([]byte("junk"), 0); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}
}
