package colopresso

import "github.com/shamspias/colopresso/internal/pngx"

// WebPConfig controls the WebP encoder edge. Field names and defaults
// mirror the C library's webp_* configuration surface one-to-one so a
// caller migrating from the C API can translate field-by-field.
type WebPConfig struct {
	Quality          float32
	Lossless         bool
	Method           int
	TargetSize       int
	TargetPSNR       float32
	Segments         int
	SNSStrength      int
	FilterStrength   int
	FilterSharpness  int
	FilterType       int
	Autofilter       bool
	AlphaCompression bool
	AlphaFiltering   int
	AlphaQuality     int
	Pass             int
	Preprocessing    int
	Partitions       int
	PartitionLimit   int
	EmulateJPEGSize  bool
	ThreadLevel      int
	LowMemory        bool
	NearLossless     int
	Exact            bool
	UseDeltaPalette  bool
	UseSharpYUV      bool
}

// AVIFConfig controls the AVIF encoder edge. See EncodeAVIF: this module
// has no AVIF backend, so these fields only round-trip into the returned
// error for now.
type AVIFConfig struct {
	Quality      float32
	AlphaQuality int
	Lossless     bool
	Speed        int
	Threads      int
}

// PNGXConfig controls the PNGX lossy/lossless optimization pipeline. It is
// a public restatement of internal/pngx.Options using the same field names
// as the original configuration contract.
type PNGXConfig struct {
	StripSafe     bool
	OptimizeAlpha bool

	LossyEnable bool
	LossyType   pngx.LossyType

	LossyMaxColors      int
	LossyReducedColors  int
	LossyReducedBitsRGB int
	LossyReducedAlpha   int
	LossyQualityMin     int
	LossyQualityMax     int
	LossySpeed          int
	LossyDitherLevel    float64
	LossyDitherAuto     bool

	SaliencyMapEnable       bool
	ChromaAnchorEnable      bool
	AdaptiveDitherEnable    bool
	GradientBoostEnable     bool
	ChromaWeightEnable      bool
	PostprocessSmoothEnable bool
	PostprocessSmoothCutoff float64

	Palette256GradientProfileEnable bool
	Palette256GradientDitherFloor   float64

	Palette256AlphaBleedEnable          bool
	Palette256AlphaBleedMaxDistance     int
	Palette256AlphaBleedOpaqueThreshold int
	Palette256AlphaBleedSoftLimit       int

	Palette256ProfileOpaqueRatioThreshold float64
	Palette256ProfileGradientMeanMax      float64
	Palette256ProfileSaturationMeanMax    float64

	Palette256TuneOpaqueRatioThreshold float64
	Palette256TuneGradientMeanMax      float64
	Palette256TuneSaturationMeanMax    float64
	Palette256TuneSpeedMax             int
	Palette256TuneQualityMinFloor      int
	Palette256TuneQualityMaxTarget     int

	ProtectedColors []RGBA

	Threads int
}

// RGBA is a straight-alpha color, one byte per channel.
type RGBA struct {
	R, G, B, A uint8
}

// Config bundles the three encoder edges' configuration into one record,
// matching the original single cpres_config_t surface.
type Config struct {
	WebP WebPConfig
	AVIF AVIFConfig
	PNGX PNGXConfig
}

// DefaultConfig returns the documented defaults for every sub-config.
func DefaultConfig() Config {
	pngxDefaults := pngx.DefaultOptions()
	return Config{
		WebP: WebPConfig{
			Quality:          80.0,
			Lossless:         false,
			Method:           6,
			TargetSize:       0,
			TargetPSNR:       0,
			Segments:         4,
			SNSStrength:      50,
			FilterStrength:   60,
			FilterSharpness:  0,
			FilterType:       1,
			Autofilter:       true,
			AlphaCompression: true,
			AlphaFiltering:   1,
			AlphaQuality:     100,
			Pass:             1,
			Preprocessing:    0,
			Partitions:       0,
			PartitionLimit:   0,
			EmulateJPEGSize:  false,
			ThreadLevel:      0,
			LowMemory:        false,
			NearLossless:     100,
			Exact:            false,
			UseDeltaPalette:  false,
			UseSharpYUV:      false,
		},
		AVIF: AVIFConfig{
			Quality:      50.0,
			AlphaQuality: 100,
			Lossless:     false,
			Speed:        6,
			Threads:      1,
		},
		PNGX: pngxConfigFromOptions(pngxDefaults),
	}
}

func pngxConfigFromOptions(o pngx.Options) PNGXConfig {
	protected := make([]RGBA, len(o.ProtectedColors))
	for i, c := range o.ProtectedColors {
		protected[i] = RGBA{c.R, c.G, c.B, c.A}
	}
	return PNGXConfig{
		StripSafe:     o.StripSafe,
		OptimizeAlpha: o.OptimizeAlpha,

		LossyEnable: o.LossyEnable,
		LossyType:   o.LossyType,

		LossyMaxColors:      o.LossyMaxColors,
		LossyReducedColors:  o.LossyReducedColors,
		LossyReducedBitsRGB: o.LossyReducedBitsRGB,
		LossyReducedAlpha:   o.LossyReducedAlpha,
		LossyQualityMin:     o.LossyQualityMin,
		LossyQualityMax:     o.LossyQualityMax,
		LossySpeed:          o.LossySpeed,
		LossyDitherLevel:    o.LossyDitherLevel,
		LossyDitherAuto:     o.LossyDitherAuto,

		SaliencyMapEnable:       o.SaliencyMapEnable,
		ChromaAnchorEnable:      o.ChromaAnchorEnable,
		AdaptiveDitherEnable:    o.AdaptiveDitherEnable,
		GradientBoostEnable:     o.GradientBoostEnable,
		ChromaWeightEnable:      o.ChromaWeightEnable,
		PostprocessSmoothEnable: o.PostprocessSmoothEnable,
		PostprocessSmoothCutoff: o.PostprocessSmoothCutoff,

		Palette256GradientProfileEnable: o.Palette256GradientProfileEnable,
		Palette256GradientDitherFloor:   o.Palette256GradientDitherFloor,

		Palette256AlphaBleedEnable:          o.Palette256AlphaBleedEnable,
		Palette256AlphaBleedMaxDistance:     o.Palette256AlphaBleedMaxDistance,
		Palette256AlphaBleedOpaqueThreshold: o.Palette256AlphaBleedOpaqueThreshold,
		Palette256AlphaBleedSoftLimit:       o.Palette256AlphaBleedSoftLimit,

		Palette256ProfileOpaqueRatioThreshold: o.Palette256ProfileOpaqueRatioThreshold,
		Palette256ProfileGradientMeanMax:      o.Palette256ProfileGradientMeanMax,
		Palette256ProfileSaturationMeanMax:    o.Palette256ProfileSaturationMeanMax,

		Palette256TuneOpaqueRatioThreshold: o.Palette256TuneOpaqueRatioThreshold,
		Palette256TuneGradientMeanMax:      o.Palette256TuneGradientMeanMax,
		Palette256TuneSaturationMeanMax:    o.Palette256TuneSaturationMeanMax,
		Palette256TuneSpeedMax:             o.Palette256TuneSpeedMax,
		Palette256TuneQualityMinFloor:      o.Palette256TuneQualityMinFloor,
		Palette256TuneQualityMaxTarget:     o.Palette256TuneQualityMaxTarget,

		ProtectedColors: protected,
		Threads:         o.Threads,
	}
}

// toPNGXOptions converts the public config into the internal pipeline's
// option record.
func (c PNGXConfig) toPNGXOptions() pngx.Options {
	protected := make([]pngx.Color, len(c.ProtectedColors))
	for i, p := range c.ProtectedColors {
		protected[i] = pngx.Color{R: p.R, G: p.G, B: p.B, A: p.A}
	}
	return pngx.Options{
		StripSafe:     c.StripSafe,
		OptimizeAlpha: c.OptimizeAlpha,

		LossyEnable: c.LossyEnable,
		LossyType:   c.LossyType,

		LossyMaxColors:      c.LossyMaxColors,
		LossyReducedColors:  c.LossyReducedColors,
		LossyReducedBitsRGB: c.LossyReducedBitsRGB,
		LossyReducedAlpha:   c.LossyReducedAlpha,
		LossyQualityMin:     c.LossyQualityMin,
		LossyQualityMax:     c.LossyQualityMax,
		LossySpeed:          c.LossySpeed,
		LossyDitherLevel:    c.LossyDitherLevel,
		LossyDitherAuto:     c.LossyDitherAuto,

		SaliencyMapEnable:       c.SaliencyMapEnable,
		ChromaAnchorEnable:      c.ChromaAnchorEnable,
		AdaptiveDitherEnable:    c.AdaptiveDitherEnable,
		GradientBoostEnable:     c.GradientBoostEnable,
		ChromaWeightEnable:      c.ChromaWeightEnable,
		PostprocessSmoothEnable: c.PostprocessSmoothEnable,
		PostprocessSmoothCutoff: c.PostprocessSmoothCutoff,

		Palette256GradientProfileEnable: c.Palette256GradientProfileEnable,
		Palette256GradientDitherFloor:   c.Palette256GradientDitherFloor,

		Palette256AlphaBleedEnable:          c.Palette256AlphaBleedEnable,
		Palette256AlphaBleedMaxDistance:     c.Palette256AlphaBleedMaxDistance,
		Palette256AlphaBleedOpaqueThreshold: c.Palette256AlphaBleedOpaqueThreshold,
		Palette256AlphaBleedSoftLimit:       c.Palette256AlphaBleedSoftLimit,

		Palette256ProfileOpaqueRatioThreshold: c.Palette256ProfileOpaqueRatioThreshold,
		Palette256ProfileGradientMeanMax:      c.Palette256ProfileGradientMeanMax,
		Palette256ProfileSaturationMeanMax:    c.Palette256ProfileSaturationMeanMax,

		Palette256TuneOpaqueRatioThreshold: c.Palette256TuneOpaqueRatioThreshold,
		Palette256TuneGradientMeanMax:      c.Palette256TuneGradientMeanMax,
		Palette256TuneSaturationMeanMax:    c.Palette256TuneSaturationMeanMax,
		Palette256TuneSpeedMax:             c.Palette256TuneSpeedMax,
		Palette256TuneQualityMinFloor:      c.Palette256TuneQualityMinFloor,
		Palette256TuneQualityMaxTarget:     c.Palette256TuneQualityMaxTarget,

		ProtectedColors: protected,
		Threads:         c.Threads,
	}
}
