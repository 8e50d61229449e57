package pngx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// variant is one candidate re-encoding of an image; OptimizeLossless keeps
// whichever variant produced the smallest output. Grounded on the
// try-every-representation-keep-the-smallest pattern used for PNG
// recompression in the wider example corpus.
type variant struct {
	name string
	data []byte
}

func (v variant) size() int { return len(v.data) }

func bestVariant(variants []variant) variant {
	best := variants[0]
	for _, v := range variants[1:] {
		if v.data != nil && (best.data == nil || v.size() < best.size()) {
			best = v
		}
	}
	return best
}

// OptimizeLossless re-encodes buf without discarding any color information,
// trying several representations (full NRGBA, grayscale when fully opaque,
// indexed palette when at most 256 colors) at maximum compression and
// keeping the smallest.
func OptimizeLossless(buf *Buffer) ([]byte, error) {
	img := buf.ToNRGBA()
	var variants []variant

	if data, err := encodePNG(img); err == nil {
		variants = append(variants, variant{"nrgba", data})
	}

	if isGrayscale(buf) {
		gray := toGrayImage(buf)
		if data, err := encodeGrayPNG(gray); err == nil {
			variants = append(variants, variant{"gray", data})
		}
	}

	if paletted := tryPalettize(buf, 256); paletted != nil {
		if data, err := encodePalettedPNG(paletted); err == nil {
			variants = append(variants, variant{"paletted", data})
		}
	}

	if len(variants) == 0 {
		return nil, ErrEncodeFailed
	}

	return bestVariant(variants).data, nil
}

func isGrayscale(buf *Buffer) bool {
	for i := 0; i+2 < len(buf.Pix); i += 4 {
		if buf.Pix[i] != buf.Pix[i+1] || buf.Pix[i+1] != buf.Pix[i+2] || buf.Pix[i+3] != 0xff {
			return false
		}
	}
	return true
}

func toGrayImage(buf *Buffer) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		srcOff := y * buf.Stride
		dstOff := y * gray.Stride
		for x := 0; x < buf.Width; x++ {
			gray.Pix[dstOff+x] = buf.Pix[srcOff+x*4]
		}
	}
	return gray
}

// tryPalettize converts buf to an indexed image if it has at most
// maxColors distinct colors, returning nil otherwise.
func tryPalettize(buf *Buffer, maxColors int) *image.Paletted {
	// Palette order is first-seen scan order, so the encoded bytes are the
	// same on every call for the same buffer.
	palette := make([]color.Color, 0, maxColors)
	index := make(map[Color]uint8, maxColors)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c := buf.At(x, y)
			if _, ok := index[c]; ok {
				continue
			}
			if len(palette) >= maxColors {
				return nil
			}
			index[c] = uint8(len(palette))
			palette = append(palette, color.NRGBA{c.R, c.G, c.B, c.A})
		}
	}

	paletted := image.NewPaletted(image.Rect(0, 0, buf.Width, buf.Height), palette)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			paletted.Pix[y*paletted.Stride+x] = index[buf.At(x, y)]
		}
	}
	return paletted
}

func encodePNG(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeGrayPNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePalettedPNG(img *image.Paletted) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeIndexed builds the final PNG for a quantize output (palette +
// indices), used by the Size Selector after a Palette256/ReducedRGBA32 run.
func EncodeIndexed(buf *Buffer, out QuantOutput) ([]byte, error) {
	palette := make([]color.Color, len(out.Palette))
	for i, c := range out.Palette {
		palette[i] = color.NRGBA{c.R, c.G, c.B, c.A}
	}
	paletted := image.NewPaletted(image.Rect(0, 0, buf.Width, buf.Height), palette)
	copy(paletted.Pix, out.Indices)
	return encodePalettedPNG(paletted)
}
