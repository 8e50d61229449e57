package pngx

import (
	"math"
	"sort"
)

// RunReducedRGBA32 quantizes buf with a k-means-style reduced RGBA32
// palette, boosted per pixel by local importance. It runs, in order:
// stats-driven bit-depth tuning, a per-pixel bit-depth-boosting pre-pass
// with Floyd-Steinberg dithering, a stats-weighted passthrough check,
// histogram/median-cut/k-means palette derivation, index assignment, and
// a final color-limit enforcement pass.
func RunReducedRGBA32(buf *Buffer, stats ImageStats, importance *ImportanceMap, opts Options) QuantOutput {
	bitsRGB, bitsA := tuneReducedBitDepth(stats, opts.LossyReducedBitsRGB, opts.LossyReducedAlpha)

	dither := opts.LossyDitherLevel
	if opts.LossyDitherAuto {
		dither = resolveDitherLevel(stats, 0.78)
	}

	snapped, hints := reducedPrepass(buf, importance, bitsRGB, bitsA, dither, opts.AdaptiveDitherEnable)

	gridCapacity := reducedGridCapacity(bitsRGB, bitsA)
	autoTarget := opts.LossyReducedColors == -1
	target := opts.LossyReducedColors
	if autoTarget {
		target = resolveAutoTargetColors(stats, bitsRGB, bitsA)
	}

	// Passthrough: when the image carries enough distinct colors relative
	// to a stats-weighted fraction of the grid's capacity, deriving a
	// palette buys little over emitting the pre-passed RGBA32 buffer
	// directly.
	if autoTarget && float64(stats.UniqueColors) >= reducedPassthroughThreshold(stats, gridCapacity) {
		return QuantOutput{Status: QuantOK, Quality: 100}
	}

	entries := buildReducedHistogram(snapped, importance, hints)
	fixed := snapColors(opts.ProtectedColors, bitsRGB, bitsA)
	palette := weightedMedianCut(entries, target, fixed)
	palette = kMeansRefine(entries, palette, len(fixed), 2)

	indices := nearestRemap(snapped, palette)
	palette, indices = enforceColorLimit(palette, indices, target+len(fixed))

	quality := estimateQuantQuality(buf, palette, indices)
	status := QuantOK
	if quality < opts.LossyQualityMin {
		status = QuantQualityTooLow
	}

	return QuantOutput{Palette: palette, Indices: indices, Quality: quality, Status: status}
}

// ReducedPassthroughSnap reproduces the tuned, pre-passed RGBA32 buffer
// RunReducedRGBA32 would have quantized from, for Run's passthrough path
// where the buffer is re-encoded losslessly instead of being given a
// derived palette.
func ReducedPassthroughSnap(buf *Buffer, stats ImageStats, importance *ImportanceMap, opts Options) *Buffer {
	bitsRGB, bitsA := tuneReducedBitDepth(stats, opts.LossyReducedBitsRGB, opts.LossyReducedAlpha)
	dither := opts.LossyDitherLevel
	if opts.LossyDitherAuto {
		dither = resolveDitherLevel(stats, 0.78)
	}
	snapped, _ := reducedPrepass(buf, importance, bitsRGB, bitsA, dither, opts.AdaptiveDitherEnable)
	return snapped
}

func reducedGridCapacity(bitsRGB, bitsA int) int {
	cap := (1 << bitsRGB) * (1 << bitsRGB) * (1 << bitsRGB) * (1 << bitsA)
	if cap > 32768 {
		cap = 32768
	}
	return cap
}

// tuneReducedBitDepth adjusts the caller's requested bit depths from
// image statistics. Flat, low-saturation, low-vibrancy images give up
// one RGB bit since the extra precision buys nothing visible; the alpha
// bit depth is pulled down toward what the image's actual alpha level
// count needs, loosened a little further the more non-opaque the image
// is.
func tuneReducedBitDepth(stats ImageStats, bitsRGB, bitsA int) (int, int) {
	if stats.GradientMean < 0.05 && stats.SaturationMean < 0.05 && stats.VibrantRatio < 0.01 {
		bitsRGB--
		if bitsRGB < 3 {
			bitsRGB = 3
		}
	}

	levels := stats.UniqueAlphaLevels
	if levels < 1 {
		levels = 1
	}
	alphaLevelBits := int(math.Ceil(math.Log2(float64(levels))))

	nonOpaque := 1 - stats.OpaqueRatio
	k := 0
	switch {
	case nonOpaque > 0.5:
		k = 2
	case nonOpaque > 0.15:
		k = 1
	}

	if target := alphaLevelBits + k; target < bitsA {
		bitsA = target
	}
	if bitsA < 1 {
		bitsA = 1
	}

	return bitsRGB, bitsA
}

// resolvePixelBits resolves the per-pixel (bitsRGB, bitsAlpha) pair from
// the tuned base depths and a 0-255 importance value, boosting toward
// base+3/base+2 for the most salient pixels on a stepped scale.
func resolvePixelBits(baseRGB, baseAlpha, imp8 int) (int, int) {
	rgb, alpha := baseRGB, baseAlpha
	switch {
	case imp8 >= reducedImportanceHigh:
		rgb, alpha = baseRGB+3, baseAlpha+2
	case imp8 >= reducedImportanceMedium:
		rgb, alpha = baseRGB+2, baseAlpha+1
	case imp8 >= reducedImportanceLow:
		rgb++
	}
	if rgb > fullChannelBits {
		rgb = fullChannelBits
	}
	if alpha > fullChannelBits {
		alpha = fullChannelBits
	}
	return rgb, alpha
}

// reducedPrepass applies per-pixel bit-depth boosting with serpentine
// Floyd-Steinberg dithering on the RGB channels. Alpha is always snapped
// directly, never dithered. Pixels at or under alphaNearTransparent keep
// full RGB precision and never source error diffusion into visible
// neighbors, since quantizing or dithering invisible regions only
// pollutes the palette. It returns the snapped buffer alongside a
// per-pixel bit-hint byte (high nibble RGB bits, low nibble alpha bits)
// that the histogram build folds into its per-color weight.
func reducedPrepass(buf *Buffer, importance *ImportanceMap, baseBitsRGB, baseBitsAlpha int, ditherLevel float64, adaptiveDither bool) (*Buffer, []uint8) {
	w, h := buf.Width, buf.Height
	out := &Buffer{Pix: make([]uint8, len(buf.Pix)), Width: w, Height: h, Stride: buf.Stride}
	hints := make([]uint8, w*h)

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

			imp8 := 128
			if importance != nil {
				imp8 = int(importance.Values[i] >> 8)
			}
			pixelBitsRGB, pixelBitsAlpha := resolvePixelBits(baseBitsRGB, baseBitsAlpha, imp8)
			hints[i] = uint8(pixelBitsRGB<<4) | uint8(pixelBitsAlpha&0x0f)

			a := snapChannel(c.A, pixelBitsAlpha)

			if c.A <= alphaNearTransparent {
				out.Set(x, y, Color{R: c.R, G: c.G, B: c.B, A: a})
				continue
			}

			r := clampF(float64(c.R)+errR[i], 0, 255)
			g := clampF(float64(c.G)+errG[i], 0, 255)
			b := clampF(float64(c.B)+errB[i], 0, 255)

			snappedColor := Color{
				R: snapChannel(uint8(r), pixelBitsRGB),
				G: snapChannel(uint8(g), pixelBitsRGB),
				B: snapChannel(uint8(b), pixelBitsRGB),
				A: a,
			}
			out.Set(x, y, snappedColor)

			if ditherLevel <= 0 {
				continue
			}

			alphaFactor := float64(c.A) / 255.0
			if alphaFactor < alphaMinDitherFactor {
				alphaFactor = alphaMinDitherFactor
			}
			strength := ditherLevel * alphaFactor
			if adaptiveDither {
				importanceScale := 0.5 + (1-float64(imp8)/255.0)*0.5
				strength *= importanceScale
			}

			er := (r - float64(snappedColor.R)) * strength
			eg := (g - float64(snappedColor.G)) * strength
			eb := (b - float64(snappedColor.B)) * strength
			diffuse(errR, errG, errB, w, h, x, y, xStep, er, eg, eb)
		}
	}

	return out, hints
}

// reducedPassthroughThreshold blends gradient, saturation, and vibrancy
// into a ratio of gridCapacity: images that are more gradient-heavy,
// saturated, or vibrant tolerate a higher unique-color count before
// palette derivation is judged worth its cost.
func reducedPassthroughThreshold(stats ImageStats, gridCapacity int) float64 {
	weighted := (stats.GradientMean + stats.SaturationMean + stats.VibrantRatio) / 3
	ratio := reducedPassthroughRatioBase + weighted*reducedPassthroughRatioGain
	if ratio < reducedPassthroughRatioFloor {
		ratio = reducedPassthroughRatioFloor
	}
	if ratio > reducedPassthroughRatioCap {
		ratio = reducedPassthroughRatioCap
	}
	return float64(gridCapacity) * ratio
}

// buildReducedHistogram folds snapped pixels into a weighted color
// histogram like buildHistogram, with an added bonus from each pixel's
// bit-hint: pixels that earned a deeper per-pixel bit depth (because
// they were locally important) keep their color's palette slot more
// readily, capped the same way the original histogram's weight caps.
func buildReducedHistogram(buf *Buffer, importance *ImportanceMap, hints []uint8) []HistogramEntry {
	counts := make(map[Color]*HistogramEntry, 4096)

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			i := y*buf.Width + x
			c := buf.At(x, y)
			weight := 1.0
			if importance != nil {
				weight = 1.0 + float64(importance.Values[i])/ImportanceScale
			}
			if hints != nil {
				detailBits := float64(hints[i] >> 4)
				weight += detailBits / fullChannelBits
			}
			if weight > 64 {
				weight = 64
			}
			if e, ok := counts[c]; ok {
				e.Weight += weight
			} else {
				counts[c] = &HistogramEntry{Color: c, Weight: weight}
			}
		}
	}

	out := make([]HistogramEntry, 0, len(counts))
	for _, e := range counts {
		out = append(out, *e)
	}
	sortHistogram(out)
	return out
}

// enforceColorLimit ranks palette entries by pixel-usage weight and,
// when more entries are populated than limit, remaps the least-used
// entries onto their nearest surviving neighbor, re-indexing afterward.
// This gives the "never exceed the advertised color budget" invariant a
// real enforcement point rather than relying on median-cut's target
// always being exact.
func enforceColorLimit(palette Palette, indices []uint8, limit int) (Palette, []uint8) {
	if limit <= 0 || len(palette) <= limit || len(indices) == 0 {
		return palette, indices
	}

	counts := make([]int, len(palette))
	for _, idx := range indices {
		counts[idx]++
	}

	type rank struct {
		idx   int
		count int
	}
	ranked := make([]rank, len(palette))
	for i, c := range counts {
		ranked[i] = rank{i, c}
	}
	sort.Slice(ranked, func(a, b int) bool { return ranked[a].count > ranked[b].count })

	keep := make(map[int]bool, limit)
	for i := 0; i < limit && i < len(ranked); i++ {
		keep[ranked[i].idx] = true
	}

	remapTo := make([]int, len(palette))
	for i := range palette {
		if keep[i] {
			remapTo[i] = i
			continue
		}
		best, bestDist := -1, math.MaxFloat64
		for j := range palette {
			if !keep[j] {
				continue
			}
			if d := colorDistSq(palette[i], palette[j]); d < bestDist {
				bestDist = d
				best = j
			}
		}
		remapTo[i] = best
	}

	trimmed := make(Palette, 0, limit)
	oldToNew := make(map[int]int, limit)
	for i, p := range palette {
		if keep[i] {
			oldToNew[i] = len(trimmed)
			trimmed = append(trimmed, p)
		}
	}

	newIndices := make([]uint8, len(indices))
	for i, idx := range indices {
		newIndices[i] = uint8(oldToNew[remapTo[idx]])
	}

	return trimmed, newIndices
}

// resolveAutoTargetColors picks a default color budget from the grid size
// and image complexity when the caller leaves LossyReducedColors at -1.
// Beyond 2048 unique colors, the target grows sub-linearly (sqrt-based)
// rather than tracking the raw grid capacity, since a palette with that
// many entries buys little once the image is already this complex.
func resolveAutoTargetColors(stats ImageStats, bitsRGB, bitsA int) int {
	gridCapacity := reducedGridCapacity(bitsRGB, bitsA)
	target := gridCapacity / reducedPassthroughGridDivisor
	if target < 2 {
		target = 2
	}
	if target > 32768 {
		target = 32768
	}
	if stats.UniqueColors > 0 && stats.UniqueColors < target {
		target = stats.UniqueColors
	}
	if stats.UniqueColors > 2048 {
		if sqrtBased := int(math.Sqrt(float64(stats.UniqueColors)) * 2.2); sqrtBased > 0 && sqrtBased < target {
			target = sqrtBased
		}
	}
	return target
}

// snapToGrid quantizes every channel onto a uniform grid with the given
// bit depth by truncating and replicating the top bits, matching PNG's own
// bit-depth reduction semantics (snap-to-bits).
func snapToGrid(buf *Buffer, bitsRGB, bitsA int) *Buffer {
	out := &Buffer{Pix: make([]uint8, len(buf.Pix)), Width: buf.Width, Height: buf.Height, Stride: buf.Stride}
	for i := 0; i+3 < len(buf.Pix); i += 4 {
		out.Pix[i] = snapChannel(buf.Pix[i], bitsRGB)
		out.Pix[i+1] = snapChannel(buf.Pix[i+1], bitsRGB)
		out.Pix[i+2] = snapChannel(buf.Pix[i+2], bitsRGB)
		out.Pix[i+3] = snapChannel(buf.Pix[i+3], bitsA)
	}
	return out
}

func snapChannel(v uint8, bits int) uint8 {
	if bits >= fullChannelBits {
		return v
	}
	shift := uint(fullChannelBits - bits)
	levels := uint16(1<<bits) - 1
	scaled := uint16(v) >> shift
	// Replicate to fill the full 8-bit range (e.g. 4-bit 0xF -> 0xFF)
	// rather than leaving the low bits zero, so full-grid colors reach
	// true white/black instead of clipping short.
	return uint8(scaled * 255 / levels)
}

func snapColors(colors []Color, bitsRGB, bitsA int) []Color {
	out := make([]Color, len(colors))
	for i, c := range colors {
		out[i] = Color{
			R: snapChannel(c.R, bitsRGB),
			G: snapChannel(c.G, bitsRGB),
			B: snapChannel(c.B, bitsRGB),
			A: snapChannel(c.A, bitsA),
		}
	}
	return out
}
