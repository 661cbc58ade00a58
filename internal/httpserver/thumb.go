package httpserver

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	// decoders for the gallery's image formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const thumbMax = 256

// makeThumb decodes one image and re-encodes it as a JPEG bounded by max on
// its longer side, preserving aspect ratio.
func makeThumb(src io.Reader, max int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image")
	}

	nw, nh := fitWithin(w, h, max)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, fmt.Errorf("encode thumb: %w", err)
	}
	return out.Bytes(), nil
}

func fitWithin(w, h, max int) (int, int) {
	if max <= 0 {
		max = thumbMax
	}
	if w <= max && h <= max {
		return w, h
	}
	if w > h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func isImageName(name string) bool {
	switch lowerExt(name) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}
