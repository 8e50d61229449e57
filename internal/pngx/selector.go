package pngx

import "errors"

// ErrOutputNotSmaller is returned when every candidate encoding is at least
// as large as the original input and no override path applies.
var ErrOutputNotSmaller = errors.New("pngx: optimized output not smaller than input")

// Run executes the full pipeline: decode, analyze, dispatch, quantize (if
// enabled), lossless re-encode, and select a candidate via selectCandidate.
// It enforces the "never grow the file" contract, with one documented
// exception: when the caller explicitly requested ReducedRGBA32 or
// LimitedRGBA4444 lossy output, that candidate is returned even if larger
// than the lossless candidate or the input, since the caller asked for that
// specific lossy transform rather than for the smallest possible file.
func Run(input []byte, opts Options) (Result, error) {
	opts = Normalize(opts)

	buf, err := Decode(input)
	if err != nil {
		return Result{}, err
	}

	lossless, err := OptimizeLossless(buf)
	if err != nil {
		return Result{}, err
	}

	candidates := []Result{{PNG: lossless, UsedLossy: false, Quality: 100}}

	if opts.LossyEnable {
		stats := Analyze(buf)
		importance := BuildImportanceMap(buf, opts)
		strategy := Dispatch(stats, opts)

		switch strategy {
		case Palette256:
			out := RunPalette256(buf, stats, importance, opts)
			if out.Status != QuantError && len(out.Palette) > 0 {
				if data, err := EncodeIndexed(buf, out); err == nil {
					candidates = append(candidates, Result{
						PNG: data, LossyType: Palette256, QuantStatus: out.Status,
						Quality: out.Quality, UsedLossy: true,
					})
				}
			}
		case ReducedRGBA32:
			out := RunReducedRGBA32(buf, stats, importance, opts)
			switch {
			case len(out.Palette) > 0 && len(out.Indices) > 0:
				if data, err := EncodeIndexed(buf, out); err == nil {
					candidates = append(candidates, Result{
						PNG: data, LossyType: ReducedRGBA32, QuantStatus: out.Status,
						Quality: out.Quality, UsedLossy: true,
					})
				}
			case out.Status == QuantOK:
				// Passthrough path: no palette, encode the tuned/pre-passed
				// RGBA32 buffer directly through the lossless path's NRGBA
				// variant.
				snapped := ReducedPassthroughSnap(buf, stats, importance, opts)
				if data, err := OptimizeLossless(snapped); err == nil {
					candidates = append(candidates, Result{
						PNG: data, LossyType: ReducedRGBA32, QuantStatus: QuantOK,
						Quality: 100, UsedLossy: true,
					})
				}
			}
		case LimitedRGBA4444:
			snapped := RunLimitedRGBA4444(buf, stats, opts)
			if data, err := OptimizeLossless(snapped); err == nil {
				candidates = append(candidates, Result{
					PNG: data, LossyType: LimitedRGBA4444, QuantStatus: QuantOK,
					Quality: 100, UsedLossy: true,
				})
			}
		}
	}

	return finalize(selectCandidate(candidates), len(input))
}

// finalize enforces the "never grow the file" contract against the chosen
// candidate, with the documented RGBA-lossy override: a caller who
// explicitly asked for a ReducedRGBA32 or LimitedRGBA4444 transform gets
// it back even when it is not smaller than the input, since the request
// was for that specific transform rather than for the smallest possible
// file.
func finalize(best Result, inputLen int) (Result, error) {
	if len(best.PNG) >= inputLen {
		if isRGBALossy(best) {
			return best, nil
		}
		return Result{}, ErrOutputNotSmaller
	}
	return best, nil
}

// isRGBALossy reports whether r came from one of the two RGBA-lossy
// strategies (ReducedRGBA32, LimitedRGBA4444), which this package's size
// selector always prefers over the lossless-of-original candidate,
// unlike Palette256 which must win on size alone.
func isRGBALossy(r Result) bool {
	return r.UsedLossy && (r.LossyType == ReducedRGBA32 || r.LossyType == LimitedRGBA4444)
}

// selectCandidate picks the winning candidate out of candidates[0] (the
// always-present lossless-of-original) and any quantized candidates that
// follow. An RGBA-lossy candidate (ReducedRGBA32 or LimitedRGBA4444) is
// always preferred over lossless regardless of byte size, since the
// caller asked for that transform explicitly; a Palette256 candidate
// only wins if it is strictly smaller than lossless.
func selectCandidate(candidates []Result) Result {
	best := candidates[0]
	haveRGBALossy := false

	for _, c := range candidates[1:] {
		switch {
		case isRGBALossy(c):
			if !haveRGBALossy || len(c.PNG) < len(best.PNG) {
				best = c
				haveRGBALossy = true
			}
		case !haveRGBALossy && len(c.PNG) < len(best.PNG):
			best = c
		}
	}
	return best
}
