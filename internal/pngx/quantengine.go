package pngx

import (
	"math"
	"sort"
)

// weightedBox is a median-cut bucket over weighted histogram entries.
type weightedBox struct {
	entries                   []HistogramEntry
	rMin, rMax, gMin, gMax, bMin, bMax uint8
	totalWeight                float64
}

func newWeightedBox(entries []HistogramEntry) *weightedBox {
	b := &weightedBox{entries: entries, rMin: 255, gMin: 255, bMin: 255}
	for _, e := range entries {
		c := e.Color
		if c.R < b.rMin {
			b.rMin = c.R
		}
		if c.R > b.rMax {
			b.rMax = c.R
		}
		if c.G < b.gMin {
			b.gMin = c.G
		}
		if c.G > b.gMax {
			b.gMax = c.G
		}
		if c.B < b.bMin {
			b.bMin = c.B
		}
		if c.B > b.bMax {
			b.bMax = c.B
		}
		b.totalWeight += e.Weight
	}
	return b
}

func (b *weightedBox) longestAxis() int {
	rRange := int(b.rMax) - int(b.rMin)
	gRange := int(b.gMax) - int(b.gMin)
	bRange := int(b.bMax) - int(b.bMin)
	if rRange >= gRange && rRange >= bRange {
		return 0
	}
	if gRange >= bRange {
		return 1
	}
	return 2
}

func (b *weightedBox) volume() float64 {
	return float64(int(b.rMax)-int(b.rMin)+1) *
		float64(int(b.gMax)-int(b.gMin)+1) *
		float64(int(b.bMax)-int(b.bMin)+1)
}

func (b *weightedBox) weightedAverage() Color {
	if len(b.entries) == 0 || b.totalWeight == 0 {
		return Color{A: 255}
	}
	var rSum, gSum, bSum, aSum, wSum float64
	for _, e := range b.entries {
		w := e.Weight
		rSum += float64(e.Color.R) * w
		gSum += float64(e.Color.G) * w
		bSum += float64(e.Color.B) * w
		aSum += float64(e.Color.A) * w
		wSum += w
	}
	return canonicalizeTransparent(Color{
		R: uint8(rSum / wSum),
		G: uint8(gSum / wSum),
		B: uint8(bSum / wSum),
		A: uint8(aSum / wSum),
	})
}

// canonicalizeTransparent zeroes a color's RGB whenever its alpha is zero,
// so a box or cluster that averages a canonical-transparent sample
// together with a near-transparent, non-canonical one never truncates to
// a fully transparent entry with leaked RGB.
func canonicalizeTransparent(c Color) Color {
	if c.A == 0 {
		return Color{}
	}
	return c
}

// weightedMedianCut splits the histogram into at most maxColors boxes,
// always splitting the box with the largest volume*weight score (the same
// selection rule as the teacher's unweighted median-cut, generalized to
// importance-weighted entries). Fixed/anchor colors occupy the leading
// palette slots, ahead of the box averages, so they survive as distinct
// palette entries.
func weightedMedianCut(entries []HistogramEntry, maxColors int, fixed []Color) Palette {
	if len(entries) == 0 {
		return Palette{{A: 255}}
	}

	reserved := len(fixed)
	if reserved > maxColors {
		reserved = maxColors
	}
	budget := maxColors - reserved
	if budget < 1 {
		budget = 1
	}

	boxes := []*weightedBox{newWeightedBox(entries)}

	for len(boxes) < budget {
		bestIdx, bestScore := -1, -1.0
		for i, box := range boxes {
			if len(box.entries) < 2 {
				continue
			}
			score := box.volume() * box.totalWeight
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}

		box := boxes[bestIdx]
		axis := box.longestAxis()
		sort.Slice(box.entries, func(i, j int) bool {
			switch axis {
			case 0:
				return box.entries[i].Color.R < box.entries[j].Color.R
			case 1:
				return box.entries[i].Color.G < box.entries[j].Color.G
			default:
				return box.entries[i].Color.B < box.entries[j].Color.B
			}
		})

		// Split at the median by accumulated weight rather than by count,
		// so high-importance pixels do not get crowded out by a majority
		// of low-importance ones on the same side of the cut.
		var acc, half float64
		half = box.totalWeight / 2
		splitAt := len(box.entries) / 2
		for i, e := range box.entries {
			acc += e.Weight
			if acc >= half {
				splitAt = i + 1
				break
			}
		}
		if splitAt <= 0 || splitAt >= len(box.entries) {
			splitAt = len(box.entries) / 2
		}

		left := newWeightedBox(box.entries[:splitAt])
		right := newWeightedBox(box.entries[splitAt:])
		boxes[bestIdx] = left
		boxes = append(boxes, right)
	}

	palette := make(Palette, 0, len(boxes)+reserved)
	palette = append(palette, fixed[:reserved]...)
	for _, box := range boxes {
		if len(palette) >= maxColors {
			break
		}
		palette = append(palette, box.weightedAverage())
	}
	return palette
}

// kMeansRefine runs a few Lloyd's-algorithm iterations to pull the
// median-cut palette toward local optima, holding the first
// len(fixedCount) entries (protected/anchor colors) stationary.
func kMeansRefine(entries []HistogramEntry, palette Palette, fixedCount, iterations int) Palette {
	if len(palette) == 0 || len(entries) == 0 {
		return palette
	}

	for iter := 0; iter < iterations; iter++ {
		sums := make([][4]float64, len(palette))
		weights := make([]float64, len(palette))

		for _, e := range entries {
			best, bestDist := 0, math.MaxFloat64
			for i, p := range palette {
				d := colorDistSq(e.Color, p)
				if d < bestDist {
					bestDist = d
					best = i
				}
			}
			sums[best][0] += float64(e.Color.R) * e.Weight
			sums[best][1] += float64(e.Color.G) * e.Weight
			sums[best][2] += float64(e.Color.B) * e.Weight
			sums[best][3] += float64(e.Color.A) * e.Weight
			weights[best] += e.Weight
		}

		changed := false
		for i := fixedCount; i < len(palette); i++ {
			if weights[i] == 0 {
				continue
			}
			next := canonicalizeTransparent(Color{
				R: uint8(sums[i][0] / weights[i]),
				G: uint8(sums[i][1] / weights[i]),
				B: uint8(sums[i][2] / weights[i]),
				A: uint8(sums[i][3] / weights[i]),
			})
			if next != palette[i] {
				changed = true
			}
			palette[i] = next
		}
		if !changed {
			break
		}
	}

	return palette
}

func colorDistSq(a, b Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	da := float64(a.A) - float64(b.A)
	return dr*dr + dg*dg + db*db + da*da
}

// nearestIndex returns the palette entry closest to c in RGBA space.
func nearestIndex(palette Palette, c Color) int {
	best, bestDist := 0, math.MaxFloat64
	for i, p := range palette {
		d := colorDistSq(c, p)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// quantizeEngine is the in-process replacement for the historical bridge
// call: weighted median-cut, k-means refinement, then (optionally)
// Floyd-Steinberg serpentine dithering while remapping to indices.
func quantizeEngine(buf *Buffer, params QuantParams) QuantOutput {
	entries := buildHistogram(buf, params.Importance)
	if len(entries) == 0 {
		return QuantOutput{Status: QuantError}
	}

	fixed := params.FixedColors
	if len(fixed) == 0 && params.MaxColors > 16 && params.DeriveAnchors {
		fixed = deriveAnchorColors(entries, min(maxDerivedColors, params.MaxColors/4))
	}

	palette := weightedMedianCut(entries, params.MaxColors, fixed)

	refineIterations := 2
	if params.Speed <= 2 {
		refineIterations = 5
	} else if params.Speed >= 8 {
		refineIterations = 0
	}
	palette = kMeansRefine(entries, palette, len(fixed), refineIterations)

	var indices []uint8
	if params.Remap {
		if params.DitherLevel > 0 {
			indices = ditherRemap(buf, palette, params.DitherLevel)
		} else {
			indices = nearestRemap(buf, palette)
		}
	}

	quality := estimateQuantQuality(buf, palette, indices)
	status := QuantOK
	if quality < int(params.QualityMin) {
		status = QuantQualityTooLow
	}

	return QuantOutput{Palette: palette, Indices: indices, Quality: quality, Status: status}
}

func nearestRemap(buf *Buffer, palette Palette) []uint8 {
	out := make([]uint8, buf.Width*buf.Height)
	parallelFor(0, buf.Height, func(y int) {
		for x := 0; x < buf.Width; x++ {
			out[y*buf.Width+x] = uint8(nearestIndex(palette, buf.At(x, y)))
		}
	})
	return out
}

// ditherRemap applies serpentine Floyd-Steinberg error diffusion scaled by
// level (0-1), remapping each pixel to its nearest palette index after the
// diffused error is folded in.
func ditherRemap(buf *Buffer, palette Palette, level float64) []uint8 {
	w, h := buf.Width, buf.Height
	out := make([]uint8, w*h)

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

			adjusted := Color{R: uint8(r), G: uint8(g), B: uint8(b), A: c.A}
			idx := nearestIndex(palette, adjusted)
			out[i] = uint8(idx)
			chosen := palette[idx]

			er := (r - float64(chosen.R)) * level
			eg := (g - float64(chosen.G)) * level
			eb := (b - float64(chosen.B)) * level

			diffuse(errR, errG, errB, w, h, x, y, xStep, er, eg, eb)
		}
	}

	return out
}

func diffuse(errR, errG, errB []float64, w, h, x, y, xStep int, er, eg, eb float64) {
	type offset struct {
		dx, dy int
		weight float64
	}
	offsets := []offset{
		{xStep, 0, 7.0 / 16},
		{-xStep, 1, 3.0 / 16},
		{0, 1, 5.0 / 16},
		{xStep, 1, 1.0 / 16},
	}
	for _, o := range offsets {
		nx, ny := x+o.dx, y+o.dy
		if nx < 0 || nx >= w || ny < 0 || ny >= h {
			continue
		}
		i := ny*w + nx
		errR[i] += er * o.weight
		errG[i] += eg * o.weight
		errB[i] += eb * o.weight
	}
}

// estimateQuantQuality scores the palette against the source image using a
// mean-squared-color-distance-derived heuristic in [0, 100].
func estimateQuantQuality(buf *Buffer, palette Palette, indices []uint8) int {
	if len(indices) == 0 {
		return 100
	}
	var sumSq float64
	n := len(indices)
	for i := 0; i < n; i++ {
		x, y := i%buf.Width, i/buf.Width
		orig := buf.At(x, y)
		quant := palette[indices[i]]
		sumSq += colorDistSq(orig, quant)
	}
	mse := sumSq / float64(n)
	maxMSE := 255.0 * 255.0 * 4
	quality := 100 * (1 - mse/maxMSE)
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	return int(quality)
}
