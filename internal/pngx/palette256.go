package pngx

import "math"

// RunPalette256 quantizes buf into an indexed image of at most
// opts.LossyMaxColors colors. It performs, in order: gradient-profile
// auto-tuning, alpha-bleed pre-pass, fixed-color assembly, dither-level
// resolution, the quantize engine call, and (optionally) an importance-
// gated post-process smoothing pass over the resulting index map.
func RunPalette256(buf *Buffer, stats ImageStats, importance *ImportanceMap, opts Options) QuantOutput {
	qualityMin, qualityMax, speed, ditherFloor := tunePalette256(stats, opts)

	work := buf
	if opts.Palette256AlphaBleedEnable && stats.TranslucentRatio > 0 {
		work = alphaBleed(buf, opts)
	}

	fixed := append([]Color(nil), opts.ProtectedColors...)

	dither := opts.LossyDitherLevel
	if opts.LossyDitherAuto {
		dither = resolveDitherLevel(stats, ditherFloor)
	}

	params := QuantParams{
		Speed:            speed,
		QualityMin:       uint8(qualityMin),
		QualityMax:       uint8(qualityMax),
		MaxColors:        opts.LossyMaxColors,
		MinPosterization: 0,
		DitherLevel:      dither,
		Importance:       importance,
		FixedColors:      fixed,
		Remap:            true,
		DeriveAnchors:    opts.ChromaAnchorEnable,
	}

	out := quantizeEngine(work, params)

	if opts.PostprocessSmoothEnable && out.Status == QuantOK {
		smoothIndices(work, out, importance, opts.PostprocessSmoothCutoff)
	}

	return out
}

// tunePalette256 implements the gradient-profile auto-tuning rule: images
// that are mostly opaque, low-gradient, and low-saturation (flat UI art,
// icons) get a speed/quality override biased toward a near-lossless
// palette; everything else keeps the caller's configured range.
func tunePalette256(stats ImageStats, opts Options) (qualityMin, qualityMax, speed int, ditherFloor float64) {
	qualityMin, qualityMax, speed = opts.LossyQualityMin, opts.LossyQualityMax, opts.LossySpeed
	ditherFloor = opts.Palette256GradientDitherFloor
	if ditherFloor == -1 {
		ditherFloor = 0.78
	}

	if !opts.Palette256GradientProfileEnable {
		return
	}

	opaqueThresh := orDefault(opts.Palette256ProfileOpaqueRatioThreshold, 0.90)
	gradMax := orDefault(opts.Palette256ProfileGradientMeanMax, 0.16)
	satMax := orDefault(opts.Palette256ProfileSaturationMeanMax, 0.42)

	isFlatProfile := stats.OpaqueRatio >= opaqueThresh &&
		stats.GradientMean <= gradMax &&
		stats.SaturationMean <= satMax

	if !isFlatProfile {
		return
	}

	tuneOpaque := orDefault(opts.Palette256TuneOpaqueRatioThreshold, 0.90)
	tuneGrad := orDefault(opts.Palette256TuneGradientMeanMax, 0.14)
	tuneSat := orDefault(opts.Palette256TuneSaturationMeanMax, 0.35)

	if stats.OpaqueRatio >= tuneOpaque && stats.GradientMean <= tuneGrad && stats.SaturationMean <= tuneSat {
		if opts.Palette256TuneSpeedMax != -1 && speed > opts.Palette256TuneSpeedMax {
			speed = opts.Palette256TuneSpeedMax
		}
		if opts.Palette256TuneQualityMinFloor != -1 && qualityMin < opts.Palette256TuneQualityMinFloor {
			qualityMin = opts.Palette256TuneQualityMinFloor
		}
		if opts.Palette256TuneQualityMaxTarget != -1 {
			qualityMax = opts.Palette256TuneQualityMaxTarget
		}
	}

	return
}

func orDefault(v, def float64) float64 {
	if v == -1 {
		return def
	}
	return v
}

// resolveDitherLevel picks a dither strength from image signals when the
// caller asked for auto (-1): smoother, low-gradient images need less
// dithering to avoid introducing visible noise, vibrant high-gradient
// images benefit from stronger dithering to mask banding.
func resolveDitherLevel(stats ImageStats, floor float64) float64 {
	level := floor + stats.GradientMean*(1-floor)
	if stats.VibrantRatio > vibrantRatioLow {
		level += 0.1
	}
	if level > 1 {
		level = 1
	}
	if level < alphaMinDitherFactor {
		level = alphaMinDitherFactor
	}
	return level
}

// alphaBleed propagates opaque-region colors into nearby translucent and
// near-transparent pixels before quantization, so the RGB channel under a
// soft alpha edge does not independently quantize to an unrelated hue that
// later "bleeds" visibly at the edge once alpha is discarded or blended.
func alphaBleed(buf *Buffer, opts Options) *Buffer {
	w, h := buf.Width, buf.Height
	out := &Buffer{Pix: append([]uint8(nil), buf.Pix...), Width: w, Height: h, Stride: buf.Stride}

	opaqueThresh := uint8(opts.Palette256AlphaBleedOpaqueThreshold)
	softLimit := uint8(opts.Palette256AlphaBleedSoftLimit)
	maxDist := opts.Palette256AlphaBleedMaxDistance

	// Multi-source BFS distance transform from opaque seed pixels, capped
	// at maxDist, propagating each seed's RGB to reachable soft pixels.
	type point struct{ x, y int }
	dist := make([]int, w*h)
	for i := range dist {
		dist[i] = math.MaxInt32
	}
	queue := make([]point, 0, w*h/4)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := buf.At(x, y)
			if c.A >= opaqueThresh {
				dist[y*w+x] = 0
				queue = append(queue, point{x, y})
			}
		}
	}

	for head := 0; head < len(queue); head++ {
		p := queue[head]
		d := dist[p.y*w+p.x]
		if d >= maxDist {
			continue
		}
		seedColor := out.At(p.x, p.y)
		neighbors := [4]point{{p.x - 1, p.y}, {p.x + 1, p.y}, {p.x, p.y - 1}, {p.x, p.y + 1}}
		for _, nb := range neighbors {
			if nb.x < 0 || nb.x >= w || nb.y < 0 || nb.y >= h {
				continue
			}
			idx := nb.y*w + nb.x
			if dist[idx] <= d+1 {
				continue
			}
			c := buf.At(nb.x, nb.y)
			if c.A >= opaqueThresh || c.A > softLimit {
				continue
			}
			dist[idx] = d + 1
			out.Set(nb.x, nb.y, Color{R: seedColor.R, G: seedColor.G, B: seedColor.B, A: c.A})
			queue = append(queue, point{nb.x, nb.y})
		}
	}

	return out
}

// smoothIndices re-assigns low-importance pixels whose index disagrees
// with the majority of their 3x3 neighborhood, reducing dither speckle in
// regions the importance map says don't matter perceptually.
func smoothIndices(buf *Buffer, out QuantOutput, importance *ImportanceMap, cutoff float64) {
	if cutoff == -1 || len(out.Indices) == 0 {
		return
	}
	w, h := buf.Width, buf.Height
	cutoffScaled := uint16(cutoff * ImportanceScale)

	original := append([]uint8(nil), out.Indices...)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			if importance != nil && importance.Values[i] >= cutoffScaled {
				continue
			}
			counts := map[uint8]int{}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					counts[original[(y+dy)*w+(x+dx)]]++
				}
			}
			var bestIdx uint8
			bestCount := -1
			for idx, cnt := range counts {
				if cnt > bestCount || (cnt == bestCount && idx < bestIdx) {
					bestCount = cnt
					bestIdx = idx
				}
			}
			out.Indices[i] = bestIdx
		}
	}
}
