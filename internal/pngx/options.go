package pngx

import "runtime"

// DefaultOptions returns the documented defaults for the PNGX pipeline.
func DefaultOptions() Options {
	return Options{
		StripSafe:     true,
		OptimizeAlpha: true,

		LossyEnable: true,
		LossyType:   Palette256,

		LossyMaxColors:      256,
		LossyReducedColors:  -1,
		LossyReducedBitsRGB: 4,
		LossyReducedAlpha:   4,
		LossyQualityMin:     80,
		LossyQualityMax:     95,
		LossySpeed:          3,
		LossyDitherLevel:    0.6,

		SaliencyMapEnable:       true,
		ChromaAnchorEnable:      true,
		AdaptiveDitherEnable:    true,
		GradientBoostEnable:     true,
		ChromaWeightEnable:      true,
		PostprocessSmoothEnable: true,
		PostprocessSmoothCutoff: 0.6,

		Palette256GradientProfileEnable: true,
		Palette256GradientDitherFloor:   0.78,

		Palette256AlphaBleedEnable:          true,
		Palette256AlphaBleedMaxDistance:     64,
		Palette256AlphaBleedOpaqueThreshold: 248,
		Palette256AlphaBleedSoftLimit:       160,

		Palette256ProfileOpaqueRatioThreshold: 0.90,
		Palette256ProfileGradientMeanMax:      0.16,
		Palette256ProfileSaturationMeanMax:    0.42,

		Palette256TuneOpaqueRatioThreshold: 0.90,
		Palette256TuneGradientMeanMax:      0.14,
		Palette256TuneSaturationMeanMax:    0.35,
		Palette256TuneSpeedMax:             1,
		Palette256TuneQualityMinFloor:      90,
		Palette256TuneQualityMaxTarget:     100,

		Threads: 1,
	}
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize clamps every field to its documented range, swaps quality_min/
// quality_max when inverted, resolves auto (-1 / 0) sentinels, and is
// idempotent: Normalize(Normalize(o)) == Normalize(o).
func Normalize(o Options) Options {
	o.LossyMaxColors = clampI(o.LossyMaxColors, 2, 256)
	o.LossyReducedBitsRGB = clampI(o.LossyReducedBitsRGB, 1, 8)
	o.LossyReducedAlpha = clampI(o.LossyReducedAlpha, 1, 8)
	o.LossySpeed = clampI(o.LossySpeed, 1, 10)

	if o.LossyReducedColors != -1 {
		o.LossyReducedColors = clampI(o.LossyReducedColors, 2, 32768)
	}

	o.LossyQualityMin = clampI(o.LossyQualityMin, 0, 100)
	o.LossyQualityMax = clampI(o.LossyQualityMax, 0, 100)
	if o.LossyQualityMin > o.LossyQualityMax {
		// The original contract documents this as an open question; this
		// rewrite resolves it by swapping rather than rejecting, so a
		// caller-supplied inversion degrades gracefully instead of failing.
		o.LossyQualityMin, o.LossyQualityMax = o.LossyQualityMax, o.LossyQualityMin
	}

	o.LossyDitherAuto = o.LossyDitherLevel < 0
	if !o.LossyDitherAuto {
		o.LossyDitherLevel = clampF(o.LossyDitherLevel, 0, 1)
	}

	if o.PostprocessSmoothCutoff != -1 {
		o.PostprocessSmoothCutoff = clampF(o.PostprocessSmoothCutoff, 0, 1)
	}

	if o.Palette256GradientDitherFloor != -1 {
		o.Palette256GradientDitherFloor = clampF(o.Palette256GradientDitherFloor, 0, 1)
	}

	o.Palette256AlphaBleedMaxDistance = clampI(o.Palette256AlphaBleedMaxDistance, 0, 65535)
	o.Palette256AlphaBleedOpaqueThreshold = clampI(o.Palette256AlphaBleedOpaqueThreshold, 0, 255)
	o.Palette256AlphaBleedSoftLimit = clampI(o.Palette256AlphaBleedSoftLimit, 0, 255)

	if o.Palette256TuneSpeedMax != -1 {
		o.Palette256TuneSpeedMax = clampI(o.Palette256TuneSpeedMax, 1, 10)
	}
	if o.Palette256TuneQualityMinFloor != -1 {
		o.Palette256TuneQualityMinFloor = clampI(o.Palette256TuneQualityMinFloor, 0, 100)
	}
	if o.Palette256TuneQualityMaxTarget != -1 {
		o.Palette256TuneQualityMaxTarget = clampI(o.Palette256TuneQualityMaxTarget, 0, 100)
	}

	if len(o.ProtectedColors) > 256 {
		o.ProtectedColors = o.ProtectedColors[:256]
	}

	if o.Threads <= 0 {
		o.Threads = runtime.GOMAXPROCS(0)
	}

	return o
}
