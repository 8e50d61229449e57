// Package colopresso compresses PNG images into WebP, AVIF, or an
// optimized PNG variant (PNGX), choosing whichever output is smallest
// for the configured quality constraints.
//
// EncodeWebP and EncodePNGX are fully implemented. EncodeAVIF documents
// a gap: no pure-Go AVIF encoder is wired into this build, so it always
// returns ErrAVIFUnavailable.
package colopresso
