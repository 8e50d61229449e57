package pngx

// RunLimitedRGBA4444 snaps every channel to 4 bits (16 levels) globally,
// with no palette indirection — the cheapest and fastest of the three
// strategies. Optional Floyd-Steinberg dithering softens the resulting
// banding; dither level follows the same auto-resolution rule as
// Palette256 when LossyDitherAuto is set.
func RunLimitedRGBA4444(buf *Buffer, stats ImageStats, opts Options) *Buffer {
	dither := opts.LossyDitherLevel
	if opts.LossyDitherAuto {
		dither = resolveDitherLevel(stats, 0.78)
	}

	if dither <= 0 {
		return snapToGrid(buf, limitedRGBA4444Bits, limitedRGBA4444Bits)
	}

	return ditherSnap(buf, limitedRGBA4444Bits, dither)
}

// ditherSnap applies serpentine Floyd-Steinberg error diffusion directly
// against the snap-to-grid quantizer (no palette lookup), since
// LimitedRGBA4444 has no indexed palette to remap into.
func ditherSnap(buf *Buffer, bits int, level float64) *Buffer {
	w, h := buf.Width, buf.Height
	out := &Buffer{Pix: make([]uint8, len(buf.Pix)), Width: w, Height: h, Stride: buf.Stride}

	errR := make([]float64, w*h)
	errG := make([]float64, w*h)
	errB := make([]float64, w*h)

	for y := 0; y < h; y++ {
		leftToRight := y%2 == 0
		xStart, xEnd, xStep := 0, w, 1
		if !leftToRight {
			xStart, xEnd, xStep = w-1, -1, -1
		}

		for x := xStart; x != xEnd; x += xStep {
			i := y*w + x
			c := buf.At(x, y)
			r := clampF(float64(c.R)+errR[i], 0, 255)
			g := clampF(float64(c.G)+errG[i], 0, 255)
			b := clampF(float64(c.B)+errB[i], 0, 255)

			snapped := Color{
				R: snapChannel(uint8(r), bits),
				G: snapChannel(uint8(g), bits),
				B: snapChannel(uint8(b), bits),
				A: snapChannel(c.A, bits),
			}
			out.Set(x, y, snapped)

			er := (r - float64(snapped.R)) * level
			eg := (g - float64(snapped.G)) * level
			eb := (b - float64(snapped.B)) * level
			diffuse(errR, errG, errB, w, h, x, y, xStep, er, eg, eb)
		}
	}

	return out
}
