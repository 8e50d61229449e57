package pngx

import "math"

// Analyze computes the gradient/saturation/opacity signals the quantizers
// and the Palette256 profile/tune heuristics need.
func Analyze(buf *Buffer) ImageStats {
	w, h := buf.Width, buf.Height
	var stats ImageStats
	if w == 0 || h == 0 {
		return stats
	}

	var gradSum, gradMax, satSum float64
	var opaque, translucent, vibrant int
	colorSet := make(map[uint32]struct{}, 1024)
	var alphaSeen [256]bool
	n := w * h

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := buf.At(x, y)
			alphaSeen[c.A] = true

			switch {
			case c.A >= 250:
				opaque++
			case c.A > alphaNearTransparent:
				translucent++
			}

			maxC := math.Max(float64(c.R), math.Max(float64(c.G), float64(c.B)))
			minC := math.Min(float64(c.R), math.Min(float64(c.G), float64(c.B)))
			var sat float64
			if maxC > 0 {
				sat = (maxC - minC) / maxC
			}
			satSum += sat
			if sat > vibrantRatioLow && maxC > 96 {
				vibrant++
			}

			key := uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
			if len(colorSet) < 65536 {
				colorSet[key] = struct{}{}
			}

			if x > 0 && y > 0 {
				left := buf.At(x-1, y)
				up := buf.At(x, y-1)
				dx := lumOf(c) - lumOf(left)
				dy := lumOf(c) - lumOf(up)
				g := math.Sqrt(dx*dx + dy*dy)
				gradSum += g
				if g > gradMax {
					gradMax = g
				}
			}
		}
	}

	total := float64(n)
	stats.OpaqueRatio = float64(opaque) / total
	stats.TranslucentRatio = float64(translucent) / total
	stats.VibrantRatio = float64(vibrant) / total
	stats.SaturationMean = satSum / total
	stats.GradientMean = gradSum / total / 255.0
	stats.GradientMax = gradMax / 255.0
	stats.UniqueColors = len(colorSet)
	stats.HasAlpha = stats.OpaqueRatio < 0.999

	for _, seen := range alphaSeen {
		if seen {
			stats.UniqueAlphaLevels++
		}
	}

	return stats
}

func lumOf(c Color) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// BuildImportanceMap derives a per-pixel perceptual weight from local
// gradient magnitude (saliency) and, when enabled, chroma intensity.
// Weights are scaled into [0, ImportanceScale].
func BuildImportanceMap(buf *Buffer, opts Options) *ImportanceMap {
	w, h := buf.Width, buf.Height
	m := &ImportanceMap{Values: make([]uint16, w*h), Width: w, Height: h}

	if !opts.SaliencyMapEnable {
		for i := range m.Values {
			m.Values[i] = uint16(ImportanceScale) / 2
		}
		return m
	}

	gradients := make([]float64, w*h)
	var maxGrad float64

	parallelFor(0, h, func(y int) {
		for x := 0; x < w; x++ {
			c := buf.At(x, y)
			gx, gy := 0.0, 0.0
			if x > 0 && x < w-1 {
				gx = lumOf(buf.At(x+1, y)) - lumOf(buf.At(x-1, y))
			}
			if y > 0 && y < h-1 {
				gy = lumOf(buf.At(x, y+1)) - lumOf(buf.At(x, y-1))
			}
			g := math.Sqrt(gx*gx+gy*gy) / 255.0

			if opts.ChromaWeightEnable {
				maxC := math.Max(float64(c.R), math.Max(float64(c.G), float64(c.B)))
				minC := math.Min(float64(c.R), math.Min(float64(c.G), float64(c.B)))
				var sat float64
				if maxC > 0 {
					sat = (maxC - minC) / maxC
				}
				g = g*0.7 + sat*0.3
			}

			gradients[y*w+x] = g
		}
	})

	for _, g := range gradients {
		if g > maxGrad {
			maxGrad = g
		}
	}
	if maxGrad == 0 {
		maxGrad = 1
	}

	boost := 1.0
	if opts.GradientBoostEnable {
		boost = 1.35
	}

	for i, g := range gradients {
		v := (g / maxGrad) * boost
		if v > 1 {
			v = 1
		}
		m.Values[i] = uint16(v * ImportanceScale)
	}

	return m
}
