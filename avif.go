package colopresso

import "fmt"

// EncodeAVIF would decode a PNG and re-encode it as AVIF. No pure-Go AVIF
// encoder exists in this module's dependency corpus — the only AVIF
// implementation available anywhere in the reference material links
// libavif via cgo — so this edge is a documented gap rather than a
// hand-rolled reimplementation of an AVIF bitstream encoder.
//
// cfg is accepted (and not just ignored) so that call sites written
// against the eventual real edge do not need to change when one lands:
// its fields are carried in the returned error, which wraps
// ErrAVIFUnavailable.
func EncodeAVIF(pngData []byte, cfg AVIFConfig) ([]byte, error) {
	logf(LevelWarning, "avif encode requested but no backend is wired in this build")
	return nil, fmt.Errorf("avif config %+v: %w", cfg, ErrAVIFUnavailable)
}
