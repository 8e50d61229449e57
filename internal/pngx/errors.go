package pngx

import "errors"

// MaxInputSize is the hard ceiling on PNG blob size this package will
// decode. Anything larger is rejected with ErrInputTooLarge rather than
// attempting to allocate a pixel buffer for it.
const MaxInputSize = 512 * 1024 * 1024 // 512 MiB

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var (
	// ErrEncodeFailed is returned when no candidate PNG re-encoding could
	// be produced at all.
	ErrEncodeFailed = errors.New("pngx: encode failed")
	// ErrDecodeFailed is returned when the input passes the PNG
	// signature check but image/png still fails to parse it.
	ErrDecodeFailed = errors.New("pngx: decode failed")
	// ErrInvalidPNG is returned when the input does not even start with
	// the 8-byte PNG magic signature.
	ErrInvalidPNG = errors.New("pngx: not a png (bad signature)")
	// ErrInputTooLarge is returned when the input exceeds MaxInputSize.
	ErrInputTooLarge = errors.New("pngx: input exceeds maximum size")
)
