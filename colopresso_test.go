package colopresso

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// genFewColorsPNG builds a flat, few-color image simulating UI art, a
// good candidate for PNGX's Palette256 strategy.
func genFewColorsPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	colors := []color.NRGBA{
		{0xff, 0xff, 0xff, 0xff},
		{0x33, 0x33, 0x33, 0xff},
		{0x00, 0x66, 0xcc, 0xff},
		{0xcc, 0x00, 0x00, 0xff},
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			c := colors[(y/10+x/10)%len(colors)]
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, c.A
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// genGradientPNG builds a smooth RGB gradient, simulating a photograph.
func genGradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off] = uint8(x * 255 / w)
			img.Pix[off+1] = uint8(y * 255 / h)
			img.Pix[off+2] = uint8((x + y) % 256)
			img.Pix[off+3] = 0xff
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}
