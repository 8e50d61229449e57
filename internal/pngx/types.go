// Package pngx implements the adaptive PNG lossy/lossless optimization
// pipeline: image analysis, strategy dispatch between three color-reduction
// quantizers, a lossless re-encoder, and a size-aware selector that picks
// the smallest acceptable output.
package pngx

import "image"

// LossyType selects which color-reduction strategy a quantize pass uses.
type LossyType int

const (
	// Palette256 builds an indexed palette of up to 256 colors using a
	// weighted median-cut/k-means engine with alpha-bleed and dithering.
	Palette256 LossyType = iota
	// LimitedRGBA4444 snaps every channel to 16 levels (4 bits), global,
	// no palette — cheapest and fastest of the three.
	LimitedRGBA4444
	// ReducedRGBA32 snaps RGB and alpha independently to a configurable
	// bit depth per channel, then derives a palette of at most a target
	// color count.
	ReducedRGBA32
)

func (t LossyType) String() string {
	switch t {
	case Palette256:
		return "palette256"
	case LimitedRGBA4444:
		return "limited_rgba4444"
	case ReducedRGBA32:
		return "reduced_rgba32"
	default:
		return "unknown"
	}
}

// Color is a straight (non-premultiplied) RGBA color, one byte per channel.
type Color struct {
	R, G, B, A uint8
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = uint32(c.A) * 0x101
	return
}

// Buffer is the canonical uniform pixel buffer the whole pipeline operates
// on: straight-alpha RGBA, row-major, four bytes per pixel.
type Buffer struct {
	Pix           []uint8
	Width, Height int
	Stride        int
}

// NewBuffer allocates a zeroed buffer of the given dimensions.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{
		Pix:    make([]uint8, w*h*4),
		Width:  w,
		Height: h,
		Stride: w * 4,
	}
}

// At returns the color at (x, y). No bounds checking.
func (b *Buffer) At(x, y int) Color {
	i := y*b.Stride + x*4
	return Color{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// Set writes the color at (x, y). No bounds checking.
func (b *Buffer) Set(x, y int, c Color) {
	i := y*b.Stride + x*4
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
}

// FromNRGBA wraps an *image.NRGBA without copying pixel data.
func FromNRGBA(img *image.NRGBA) *Buffer {
	return &Buffer{
		Pix:    img.Pix,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Stride: img.Stride,
	}
}

// ToNRGBA copies the buffer into a fresh *image.NRGBA.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(dst.Pix, b.Pix)
	return dst
}

// ImportanceMap assigns each pixel a perceptual weight in [0, ImportanceScale],
// derived from saliency (gradient magnitude) and optionally chroma.
type ImportanceMap struct {
	Values []uint16 // len == Width*Height
	Width  int
	Height int
}

const ImportanceScale = 65535.0

// ImageStats summarizes per-image signals the quantizers and the
// Palette256 profile/tune heuristics consume.
type ImageStats struct {
	GradientMean       float64
	GradientMax        float64
	SaturationMean     float64
	OpaqueRatio        float64
	TranslucentRatio   float64
	VibrantRatio       float64
	UniqueColors       int
	UniqueAlphaLevels  int
	HasAlpha           bool
}

const (
	chromaBucketDim   = 16
	chromaBucketBits  = 4
	chromaBucketShift = 8 - chromaBucketBits
	chromaBucketCount = chromaBucketDim * chromaBucketDim * chromaBucketDim
)

// ChromaBucketGrid is a 16x16x16 histogram over quantized (R,G,B) space,
// used to pick anchor colors for fixed-color seeding.
type ChromaBucketGrid struct {
	Counts [chromaBucketCount]uint32
	Sum    [chromaBucketCount][3]uint64 // accumulated true R,G,B per bucket
}

func chromaBucketIndex(c Color) int {
	r := int(c.R) >> chromaBucketShift
	g := int(c.G) >> chromaBucketShift
	b := int(c.B) >> chromaBucketShift
	return (r*chromaBucketDim+g)*chromaBucketDim + b
}

// Add folds one opaque-ish pixel into its bucket.
func (g *ChromaBucketGrid) Add(c Color) {
	idx := chromaBucketIndex(c)
	g.Counts[idx]++
	g.Sum[idx][0] += uint64(c.R)
	g.Sum[idx][1] += uint64(c.G)
	g.Sum[idx][2] += uint64(c.B)
}

// Mean returns the average color accumulated in bucket idx.
func (g *ChromaBucketGrid) Mean(idx int) Color {
	n := uint64(g.Counts[idx])
	if n == 0 {
		return Color{}
	}
	return Color{
		R: uint8(g.Sum[idx][0] / n),
		G: uint8(g.Sum[idx][1] / n),
		B: uint8(g.Sum[idx][2] / n),
		A: 255,
	}
}

// HistogramEntry pairs a color with its sample weight (the sum of an
// importance-derived weight over its pixels), used as the unit of work for
// median-cut boxes.
type HistogramEntry struct {
	Color  Color
	Weight float64
}

// Palette is an ordered list of colors; index position is the palette index.
type Palette []Color

// QuantStatus reports how a quantize engine call resolved.
type QuantStatus int

const (
	QuantOK QuantStatus = iota
	QuantQualityTooLow
	QuantError
)

// QuantParams is the contract the in-process quantize engine accepts —
// mirrors the historical bridge call so Palette256's pre/post-phase logic
// does not need to change shape.
type QuantParams struct {
	Speed            int
	QualityMin       uint8
	QualityMax       uint8
	MaxColors        int
	MinPosterization int
	DitherLevel      float64
	Importance       *ImportanceMap
	FixedColors      []Color
	Remap            bool
	DeriveAnchors    bool
}

// QuantOutput is the result of a quantize engine call.
type QuantOutput struct {
	Palette Palette
	Indices []uint8 // len == pixel count, row-major
	Quality int     // 0-100 estimate of perceptual fidelity achieved
	Status  QuantStatus
}

const (
	maxDerivedColors     = 48
	rgbaChannels         = 4
	fullChannelBits      = 8
	limitedRGBA4444Bits  = 4
	alphaNearTransparent = 8
	alphaMinDitherFactor = 0.04
	vibrantRatioLow      = 0.04

	// reducedPassthroughGridDivisor is the fallback divisor used to turn a
	// grid's raw capacity into a default color target when the caller
	// leaves LossyReducedColors at -1.
	reducedPassthroughGridDivisor = 4

	// The ReducedRGBA32 passthrough ratio blends gradient/saturation/
	// vibrancy into a threshold fraction of grid capacity, clamped to
	// [reducedPassthroughRatioFloor, reducedPassthroughRatioCap]. The base
	// and gain match spec's documented literal constants; the equal-thirds
	// blend of the three stats is this rewrite's own simplification since
	// the original per-term weights were not recoverable from the
	// retrieved source.
	reducedPassthroughRatioBase  = 0.55
	reducedPassthroughRatioGain  = 0.35
	reducedPassthroughRatioFloor = 0.0
	reducedPassthroughRatioCap   = 0.9

	// Per-pixel importance thresholds (0-255 scale) gating
	// ReducedRGBA32's bit-depth boosting in its pre-pass.
	reducedImportanceHigh   = 224
	reducedImportanceMedium = 200
	reducedImportanceLow    = 160
)

// Options mirrors the full pngx_options_t surface from the original
// configuration contract: one normalized record driving every quantizer.
type Options struct {
	StripSafe     bool
	OptimizeAlpha bool

	LossyEnable bool
	LossyType   LossyType

	LossyMaxColors       int
	LossyReducedColors   int // -1 = auto
	LossyReducedBitsRGB  int
	LossyReducedAlpha    int
	LossyQualityMin      int
	LossyQualityMax      int
	LossySpeed           int
	LossyDitherLevel     float64 // -1 = auto
	LossyDitherAuto      bool

	SaliencyMapEnable       bool
	ChromaAnchorEnable      bool
	AdaptiveDitherEnable    bool
	GradientBoostEnable     bool
	ChromaWeightEnable      bool
	PostprocessSmoothEnable bool
	PostprocessSmoothCutoff float64 // -1 disables smoothing

	Palette256GradientProfileEnable bool
	Palette256GradientDitherFloor   float64 // -1 = internal default

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

	ProtectedColors []Color

	Threads int
}

// Result is what the top-level Run pipeline returns for one PNGX pass.
type Result struct {
	PNG         []byte
	LossyType   LossyType
	QuantStatus QuantStatus
	Quality     int
	UsedLossy   bool
}
