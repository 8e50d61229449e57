package colopresso

import (
	"bytes"
	"image"
	"image/png"
)

// maxInputSize is the hard ceiling on PNG blob size this module will
// accept, shared by every encoder edge. Anything larger is rejected with
// ErrInvalidParameter rather than attempting to decode it.
const maxInputSize = 512 * 1024 * 1024 // 512 MiB

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// validatePNGInput enforces the module-wide size limit and checks for a
// valid PNG magic signature, giving INVALID_PARAMETER and INVALID_PNG
// distinct, cheap call sites ahead of any actual decode attempt. op names
// the calling operation for the returned *Error.
func validatePNGInput(op string, data []byte) error {
	if len(data) > maxInputSize {
		return newError(op, ErrInvalidParameter, nil)
	}
	if len(data) < len(pngSignature) || [8]byte(data[:8]) != pngSignature {
		return newError(op, ErrInvalidPNG, nil)
	}
	return nil
}

// decodePNGImage decodes PNG bytes into a standard library image.Image,
// shared by the WebP edge and MeasureQuality (neither needs the PNGX
// internal pixel buffer representation). op names the calling operation
// for any returned *Error.
func decodePNGImage(op string, data []byte) (image.Image, error) {
	if err := validatePNGInput(op, data); err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newError(op, ErrDecodeFailed, err)
	}
	return img, nil
}
