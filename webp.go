package colopresso

import (
	"bytes"

	"github.com/deepteams/webp"
)

// toEncoderOptions maps WebPConfig field-for-field onto deepteams/webp's
// EncoderOptions. ThreadLevel has no counterpart in that library's option
// surface (it parallelizes internally) and is not carried across; neither
// are Autofilter, EmulateJPEGSize and UseDeltaPalette.
func (c WebPConfig) toEncoderOptions() webp.EncoderOptions {
	return webp.EncoderOptions{
		Lossless:         c.Lossless,
		Quality:          c.Quality,
		Method:           c.Method,
		TargetSize:       c.TargetSize,
		TargetPSNR:       c.TargetPSNR,
		Segments:         c.Segments,
		SNSStrength:      c.SNSStrength,
		FilterStrength:   c.FilterStrength,
		FilterSharpness:  c.FilterSharpness,
		FilterType:       c.FilterType,
		Partitions:       c.Partitions,
		AlphaCompression: c.AlphaCompression,
		AlphaFiltering:   c.AlphaFiltering,
		AlphaQuality:     c.AlphaQuality,
		Pass:             c.Pass,
		Preprocessing:    c.Preprocessing,
		PartitionLimit:   c.PartitionLimit,
		LowMemory:        c.LowMemory,
		NearLossless:     c.NearLossless,
		Exact:            c.Exact,
		UseSharpYUV:      c.UseSharpYUV,
	}
}

// EncodeWebP decodes a PNG and re-encodes it as WebP using the given
// configuration. It is a thin, fully-exercised edge over
// github.com/deepteams/webp; this module does no pixel manipulation of
// its own for this path.
func EncodeWebP(pngData []byte, cfg WebPConfig) ([]byte, error) {
	img, err := decodePNGImage("EncodeWebP", pngData)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, cfg.toEncoderOptions()); err != nil {
		logf(LevelError, "webp encode failed: %v", err)
		return nil, newError("EncodeWebP", ErrEncodeFailed, err)
	}
	logf(LevelDebug, "webp encode produced %d bytes", buf.Len())
	return buf.Bytes(), nil
}
