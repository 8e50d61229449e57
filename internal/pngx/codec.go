package pngx

import (
	"bytes"
	"image"
	"image/png"
)

// Decode reads PNG bytes into the canonical straight-alpha pixel buffer,
// un-premultiplying and normalizing any source color model to RGBA8. It
// enforces the package's hard input-size limit and rejects anything
// lacking a valid PNG signature before handing the bytes to image/png.
func Decode(data []byte) (*Buffer, error) {
	if len(data) > MaxInputSize {
		return nil, ErrInputTooLarge
	}
	if len(data) < len(pngSignature) || [8]byte(data[:8]) != pngSignature {
		return nil, ErrInvalidPNG
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrDecodeFailed
	}
	return FromImage(img), nil
}

// FromImage converts any image.Image into the canonical buffer, handling
// premultiplied-alpha source models correctly.
func FromImage(img image.Image) *Buffer {
	if nrgba, ok := img.(*image.NRGBA); ok {
		dst := NewBuffer(nrgba.Bounds().Dx(), nrgba.Bounds().Dy())
		copy(dst.Pix, nrgba.Pix)
		for i := 0; i+3 < len(dst.Pix); i += 4 {
			if dst.Pix[i+3] == 0 {
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = 0, 0, 0
			}
		}
		return dst
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := NewBuffer(w, h)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			off := (y-bounds.Min.Y)*dst.Stride + (x-bounds.Min.X)*4
			switch {
			case a == 0:
				// Fully transparent pixels are canonicalized to zero RGB so
				// that two images differing only in "don't care" color
				// under full transparency compare as identical.
			case a == 0xffff:
				dst.Pix[off] = uint8(r >> 8)
				dst.Pix[off+1] = uint8(g >> 8)
				dst.Pix[off+2] = uint8(b >> 8)
				dst.Pix[off+3] = 0xff
			default:
				dst.Pix[off] = uint8(((r * 0xffff) / a) >> 8)
				dst.Pix[off+1] = uint8(((g * 0xffff) / a) >> 8)
				dst.Pix[off+2] = uint8(((b * 0xffff) / a) >> 8)
				dst.Pix[off+3] = uint8(a >> 8)
			}
		}
	}
	return dst
}
