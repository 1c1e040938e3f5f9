// Package watermark composites the community watermark over submitted
// images. Failures here mean the image is not forwarded at all; there is no
// unwatermarked fallback.
package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// widthRatio scales the watermark to this fraction of the source width,
// preserving the watermark's aspect ratio.
const widthRatio = 0.8

const jpegQuality = 90

// ErrNotImage is returned when the payload does not decode as an image.
var ErrNotImage = errors.New("not a decodable image")

// Placement computes the rendered watermark size and top-left offset for a
// source of srcW x srcH and a watermark of markW x markH: 80% of the source
// width, aspect preserved, centered on both axes.
func Placement(srcW, srcH, markW, markH int) (w, h, x, y int) {
	w = srcW * 8 / 10
	h = markH * w / markW
	x = (srcW - w) / 2
	y = (srcH - h) / 2
	return w, h, x, y
}

// Compose alpha-blends the watermark over the source image and flattens the
// result onto an opaque background, returning JPEG bytes.
func Compose(src, mark []byte) ([]byte, error) {
	srcImg, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", ErrNotImage)
	}
	markImg, _, err := image.Decode(bytes.NewReader(mark))
	if err != nil {
		return nil, fmt.Errorf("decode watermark: %w", ErrNotImage)
	}

	srcBounds := srcImg.Bounds()
	markBounds := markImg.Bounds()
	if srcBounds.Dx() == 0 || srcBounds.Dy() == 0 || markBounds.Dx() == 0 || markBounds.Dy() == 0 {
		return nil, fmt.Errorf("degenerate image dimensions: %w", ErrNotImage)
	}

	w, h, x, y := Placement(srcBounds.Dx(), srcBounds.Dy(), markBounds.Dx(), markBounds.Dy())

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), markImg, markBounds, xdraw.Over, nil)

	// Flatten: opaque background, then source, then the scaled watermark.
	out := image.NewRGBA(image.Rect(0, 0, srcBounds.Dx(), srcBounds.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), srcImg, srcBounds.Min, draw.Over)
	draw.Draw(out, image.Rect(x, y, x+w, y+h), scaled, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode composited image: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks that the payload decodes as an image and does not exceed
// maxBytes. Used for watermark uploads.
func Validate(data []byte, maxBytes int) error {
	if maxBytes > 0 && len(data) > maxBytes {
		return fmt.Errorf("image exceeds %d bytes", maxBytes)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return ErrNotImage
	}
	return nil
}
