package pngx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"testing"
)

// genGradientPNG builds a smooth RGB gradient with a soft alpha edge,
// simulating a photographic image with transparency.
func genGradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off] = uint8(x * 255 / w)
			img.Pix[off+1] = uint8(y * 255 / h)
			img.Pix[off+2] = uint8((x + y) % 256)
			a := 255
			if x < w/10 {
				a = x * 255 / (w / 10)
			}
			img.Pix[off+3] = uint8(a)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// genFewColorsPNG builds a flat, few-color image simulating UI art.
func genFewColorsPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	colors := []color.NRGBA{
		{0xff, 0xff, 0xff, 0xff},
		{0x33, 0x33, 0x33, 0xff},
		{0x00, 0x66, 0xcc, 0xff},
		{0xcc, 0x00, 0x00, 0xff},
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			c := colors[(y/10+x/10)%len(colors)]
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, c.A
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// genFullyTransparentPNG builds an image that is fully transparent but has
// varying "garbage" RGB under the alpha, testing transparent canonicalization.
func genFullyTransparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			img.Pix[off], img.Pix[off+1], img.Pix[off+2] = uint8(x*16), uint8(y*16), uint8(x+y)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	data := genGradientPNG(t, 64, 48)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.Width != 64 || buf.Height != 48 {
		t.Fatalf("got %dx%d, want 64x48", buf.Width, buf.Height)
	}
}

func TestDecodeTransparentCanonicalization(t *testing.T) {
	data := genFullyTransparentPNG(t, 16, 16)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			c := buf.At(x, y)
			if c.A != 0 {
				t.Fatalf("expected fully transparent pixel at (%d,%d), got alpha=%d", x, y, c.A)
			}
			if c.R != 0 || c.G != 0 || c.B != 0 {
				t.Fatalf("expected canonical zero RGB under full transparency at (%d,%d), got %+v", x, y, c)
			}
		}
	}
}

func TestPalette256CapsColors(t *testing.T) {
	data := genGradientPNG(t, 80, 60)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	opts := Normalize(DefaultOptions())
	stats := Analyze(buf)
	importance := BuildImportanceMap(buf, opts)

	out := RunPalette256(buf, stats, importance, opts)
	if len(out.Palette) > opts.LossyMaxColors {
		t.Fatalf("palette has %d colors, want <= %d", len(out.Palette), opts.LossyMaxColors)
	}
	for _, idx := range out.Indices {
		if int(idx) >= len(out.Palette) {
			t.Fatalf("index %d out of range for palette of size %d", idx, len(out.Palette))
		}
	}
}

func TestReducedRGBA32SnapsToGrid(t *testing.T) {
	data := genGradientPNG(t, 64, 64)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	opts := Normalize(DefaultOptions())
	opts.LossyReducedBitsRGB = 3
	opts.LossyReducedAlpha = 3

	snapped := snapToGrid(buf, opts.LossyReducedBitsRGB, opts.LossyReducedAlpha)
	levels := map[uint8]bool{}
	for i := 0; i+2 < len(snapped.Pix); i += 4 {
		levels[snapped.Pix[i]] = true
	}
	if len(levels) > 1<<opts.LossyReducedBitsRGB {
		t.Fatalf("red channel has %d distinct values, want <= %d", len(levels), 1<<opts.LossyReducedBitsRGB)
	}
}

func TestLimitedRGBA4444ChannelCardinality(t *testing.T) {
	data := genGradientPNG(t, 64, 64)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	stats := Analyze(buf)
	opts := Normalize(DefaultOptions())
	opts.LossyDitherLevel = 0 // isolate the grid cardinality from dithering noise

	out := RunLimitedRGBA4444(buf, stats, opts)
	for _, ch := range []int{0, 1, 2, 3} {
		levels := map[uint8]bool{}
		for i := ch; i < len(out.Pix); i += 4 {
			levels[out.Pix[i]] = true
		}
		if len(levels) > 16 {
			t.Fatalf("channel %d has %d distinct values, want <= 16", ch, len(levels))
		}
	}
}

func TestProtectedColorsSurviveQuantization(t *testing.T) {
	data := genFewColorsPNG(t, 40, 40)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	protected := Color{R: 0x12, G: 0x34, B: 0x56, A: 0xff}

	opts := Normalize(DefaultOptions())
	opts.LossyMaxColors = 8
	opts.ProtectedColors = []Color{protected}

	stats := Analyze(buf)
	importance := BuildImportanceMap(buf, opts)
	out := RunPalette256(buf, stats, importance, opts)

	found := false
	for _, c := range out.Palette {
		if c == protected {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("protected color %+v not present in final palette", protected)
	}
}

func TestOptionNormalizeIsIdempotent(t *testing.T) {
	o := DefaultOptions()
	o.LossyQualityMin = 95
	o.LossyQualityMax = 10 // inverted on purpose
	o.LossyMaxColors = 9000
	o.Threads = 0

	once := Normalize(o)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Normalize is not idempotent:\n%+v\n%+v", once, twice)
	}
	if once.LossyQualityMin > once.LossyQualityMax {
		t.Fatalf("quality_min (%d) > quality_max (%d) after normalize", once.LossyQualityMin, once.LossyQualityMax)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	data := genFewColorsPNG(t, 50, 50)
	opts := DefaultOptions()

	r1, err := Run(data, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r2, err := Run(data, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(r1.PNG, r2.PNG) {
		t.Fatalf("Run produced different output bytes across identical calls")
	}
}

func TestRunNeverGrowsOutputForPalettizableInput(t *testing.T) {
	data := genFewColorsPNG(t, 60, 60)
	r, err := Run(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(r.PNG) >= len(data) {
		t.Fatalf("optimized size %d >= input size %d", len(r.PNG), len(data))
	}
}

func TestFinalizeRejectsGrowthByDefault(t *testing.T) {
	best := Result{PNG: make([]byte, 100), LossyType: Palette256, UsedLossy: true}
	if _, err := finalize(best, 50); err != ErrOutputNotSmaller {
		t.Fatalf("got err=%v, want ErrOutputNotSmaller", err)
	}
}

func TestFinalizeLimitedRGBA4444OverridePermitsGrowth(t *testing.T) {
	best := Result{PNG: make([]byte, 100), LossyType: LimitedRGBA4444, UsedLossy: true}
	r, err := finalize(best, 50)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if r.LossyType != LimitedRGBA4444 {
		t.Fatalf("expected LimitedRGBA4444 override result, got %v", r.LossyType)
	}
}

func TestFinalizeReducedRGBA32OverridePermitsGrowth(t *testing.T) {
	best := Result{PNG: make([]byte, 100), LossyType: ReducedRGBA32, UsedLossy: true}
	r, err := finalize(best, 50)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if r.LossyType != ReducedRGBA32 {
		t.Fatalf("expected ReducedRGBA32 override result, got %v", r.LossyType)
	}
}

func TestSelectCandidatePrefersRGBALossyOverLargerLossless(t *testing.T) {
	lossless := Result{PNG: make([]byte, 50)}
	quantized := Result{PNG: make([]byte, 80), LossyType: ReducedRGBA32, UsedLossy: true}
	got := selectCandidate([]Result{lossless, quantized})
	if !got.UsedLossy || got.LossyType != ReducedRGBA32 {
		t.Fatalf("expected RGBA-lossy candidate to win despite larger size, got %+v", got)
	}
}

func TestSelectCandidateRequiresPalette256StrictlySmaller(t *testing.T) {
	lossless := Result{PNG: make([]byte, 50)}
	indexed := Result{PNG: make([]byte, 80), LossyType: Palette256, UsedLossy: true}
	got := selectCandidate([]Result{lossless, indexed})
	if got.UsedLossy {
		t.Fatalf("expected lossless to win when Palette256 candidate is larger, got %+v", got)
	}
}

func TestTuneReducedBitDepthLowersBitsForFlatImage(t *testing.T) {
	flat := ImageStats{GradientMean: 0.01, SaturationMean: 0.01, VibrantRatio: 0.0, UniqueAlphaLevels: 1, OpaqueRatio: 1}
	rgb, alpha := tuneReducedBitDepth(flat, 6, 6)
	if rgb != 5 {
		t.Fatalf("expected bitsRGB reduced to 5 for a flat image, got %d", rgb)
	}
	if alpha != 1 {
		t.Fatalf("expected bitsAlpha reduced toward the single observed alpha level, got %d", alpha)
	}
}

func TestTuneReducedBitDepthKeepsBitsForVibrantImage(t *testing.T) {
	vibrant := ImageStats{GradientMean: 0.4, SaturationMean: 0.5, VibrantRatio: 0.3, UniqueAlphaLevels: 256, OpaqueRatio: 0.2}
	rgb, alpha := tuneReducedBitDepth(vibrant, 6, 6)
	if rgb != 6 {
		t.Fatalf("expected bitsRGB unchanged for a vibrant image, got %d", rgb)
	}
	if alpha != 6 {
		t.Fatalf("expected bitsAlpha unchanged when the image has many alpha levels, got %d", alpha)
	}
}

func TestResolvePixelBitsBoostsHighImportance(t *testing.T) {
	rgb, alpha := resolvePixelBits(4, 4, 255)
	if rgb != 7 || alpha != 6 {
		t.Fatalf("expected high-importance pixel boosted to (7,6), got (%d,%d)", rgb, alpha)
	}
	rgb, alpha = resolvePixelBits(4, 4, 0)
	if rgb != 4 || alpha != 4 {
		t.Fatalf("expected low-importance pixel left at base (4,4), got (%d,%d)", rgb, alpha)
	}
}

func TestResolvePixelBitsCapsAtFullChannelDepth(t *testing.T) {
	rgb, alpha := resolvePixelBits(7, 7, 255)
	if rgb != 8 || alpha != 8 {
		t.Fatalf("expected boosted bits capped at 8, got (%d,%d)", rgb, alpha)
	}
}

func TestReducedPrepassProducesBitHintMap(t *testing.T) {
	data := genGradientPNG(t, 48, 48)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	opts := Normalize(DefaultOptions())
	importance := BuildImportanceMap(buf, opts)

	snapped, hints := reducedPrepass(buf, importance, 4, 4, 0.6, true)
	if snapped.Width != buf.Width || snapped.Height != buf.Height {
		t.Fatalf("prepass changed buffer dimensions")
	}
	if len(hints) != buf.Width*buf.Height {
		t.Fatalf("expected one hint byte per pixel, got %d for %d pixels", len(hints), buf.Width*buf.Height)
	}
	seenDistinct := map[uint8]bool{}
	for _, h := range hints {
		seenDistinct[h] = true
	}
	if len(seenDistinct) < 2 {
		t.Fatalf("expected the gradient fixture to produce varied bit hints across importance levels, got %d distinct", len(seenDistinct))
	}
}

func TestReducedPrepassKeepsNearTransparentPixelsUndithered(t *testing.T) {
	data := genGradientPNG(t, 32, 32)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	opts := Normalize(DefaultOptions())
	importance := BuildImportanceMap(buf, opts)

	snapped, _ := reducedPrepass(buf, importance, 3, 3, 0.6, true)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			orig := buf.At(x, y)
			if orig.A > alphaNearTransparent {
				continue
			}
			got := snapped.At(x, y)
			if got.R != orig.R || got.G != orig.G || got.B != orig.B {
				t.Fatalf("expected near-transparent pixel at (%d,%d) to keep full RGB precision, got %+v from %+v", x, y, got, orig)
			}
		}
	}
}

func TestReducedPassthroughThresholdScalesWithComplexity(t *testing.T) {
	flat := ImageStats{GradientMean: 0, SaturationMean: 0, VibrantRatio: 0}
	vibrant := ImageStats{GradientMean: 0.5, SaturationMean: 0.5, VibrantRatio: 0.5}

	flatThresh := reducedPassthroughThreshold(flat, 4096)
	vibrantThresh := reducedPassthroughThreshold(vibrant, 4096)

	if vibrantThresh <= flatThresh {
		t.Fatalf("expected a more complex image to tolerate a higher passthrough threshold, got flat=%v vibrant=%v", flatThresh, vibrantThresh)
	}
	if flatThresh != float64(4096)*reducedPassthroughRatioBase {
		t.Fatalf("expected the flat-image threshold to sit at the base ratio, got %v", flatThresh)
	}
}

func TestEnforceColorLimitTrimsToBudget(t *testing.T) {
	palette := Palette{
		{R: 255}, {G: 255}, {B: 255}, {R: 10, G: 10, B: 10},
	}
	indices := []uint8{0, 0, 0, 1, 1, 2, 3}

	trimmed, remapped := enforceColorLimit(palette, indices, 2)
	if len(trimmed) != 2 {
		t.Fatalf("expected palette trimmed to 2 entries, got %d", len(trimmed))
	}
	for _, idx := range remapped {
		if int(idx) >= len(trimmed) {
			t.Fatalf("index %d out of range for trimmed palette of size %d", idx, len(trimmed))
		}
	}
	// The two most-used colors (index 0 with weight 3, index 1 with weight 2)
	// must survive as-is.
	if trimmed[0] != palette[0] {
		t.Fatalf("expected the most-used color to survive unchanged, got %+v", trimmed[0])
	}
}

func TestEnforceColorLimitNoopWhenUnderBudget(t *testing.T) {
	palette := Palette{{R: 255}, {G: 255}}
	indices := []uint8{0, 1}
	trimmed, remapped := enforceColorLimit(palette, indices, 4)
	if len(trimmed) != 2 || !reflect.DeepEqual(remapped, indices) {
		t.Fatalf("expected no-op when palette is already under budget, got %+v / %+v", trimmed, remapped)
	}
}

func TestRunReducedRGBA32ProducesUsablePaletteOrPassthrough(t *testing.T) {
	data := genGradientPNG(t, 96, 64)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	opts := Normalize(DefaultOptions())
	opts.LossyType = ReducedRGBA32
	opts.LossyReducedColors = 64
	stats := Analyze(buf)
	importance := BuildImportanceMap(buf, opts)

	out := RunReducedRGBA32(buf, stats, importance, opts)
	if out.Status == QuantError {
		t.Fatalf("RunReducedRGBA32 returned QuantError")
	}
	if len(out.Palette) == 0 {
		// Passthrough path: no palette/indices produced, which is valid when
		// the stats-weighted threshold judges the image too complex to
		// benefit from palette derivation.
		return
	}
	if len(out.Palette) > opts.LossyReducedColors+len(opts.ProtectedColors) {
		t.Fatalf("palette has %d colors, want <= %d", len(out.Palette), opts.LossyReducedColors)
	}
	for _, idx := range out.Indices {
		if int(idx) >= len(out.Palette) {
			t.Fatalf("index %d out of range for palette of size %d", idx, len(out.Palette))
		}
	}
}

func TestReducedPassthroughSnapMatchesPrepassTuning(t *testing.T) {
	data := genFewColorsPNG(t, 64, 64)
	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	opts := Normalize(DefaultOptions())
	stats := Analyze(buf)
	importance := BuildImportanceMap(buf, opts)

	snapped := ReducedPassthroughSnap(buf, stats, importance, opts)
	if snapped.Width != buf.Width || snapped.Height != buf.Height {
		t.Fatalf("ReducedPassthroughSnap changed buffer dimensions")
	}
}
