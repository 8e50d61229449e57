package colopresso

import (
	"errors"

	"github.com/shamspias/colopresso/internal/pngx"
)

// PNGXResult reports what the PNGX pipeline did to produce its output,
// for callers that want to log or assert on the chosen strategy.
type PNGXResult struct {
	PNG         []byte
	LossyType   pngx.LossyType
	UsedLossy   bool
	Quality     int
	QuantStatus pngx.QuantStatus
}

// EncodePNGX runs the adaptive lossless/lossy PNG optimization pipeline
// over pngData and returns the candidate its size selector picked: the
// smallest one, except that a ReducedRGBA32 or LimitedRGBA4444 candidate
// is returned whenever one was produced.
func EncodePNGX(pngData []byte, cfg PNGXConfig) (PNGXResult, error) {
	opts := cfg.toPNGXOptions()

	result, err := pngx.Run(pngData, opts)
	if err != nil {
		switch {
		case errors.Is(err, pngx.ErrOutputNotSmaller):
			logf(LevelInfo, "pngx: no candidate smaller than input")
			return PNGXResult{}, newError("EncodePNGX", ErrOutputNotSmallerCode, err)
		case errors.Is(err, pngx.ErrInputTooLarge):
			return PNGXResult{}, newError("EncodePNGX", ErrInvalidParameter, err)
		case errors.Is(err, pngx.ErrInvalidPNG):
			return PNGXResult{}, newError("EncodePNGX", ErrInvalidPNG, err)
		case errors.Is(err, pngx.ErrDecodeFailed):
			return PNGXResult{}, newError("EncodePNGX", ErrDecodeFailed, err)
		}
		logf(LevelError, "pngx: run failed: %v", err)
		return PNGXResult{}, newError("EncodePNGX", ErrEncodeFailed, err)
	}

	logf(LevelDebug, "pngx: strategy=%s quality=%d bytes=%d", result.LossyType, result.Quality, len(result.PNG))
	return PNGXResult{
		PNG:         result.PNG,
		LossyType:   result.LossyType,
		UsedLossy:   result.UsedLossy,
		Quality:     result.Quality,
		QuantStatus: result.QuantStatus,
	}, nil
}
