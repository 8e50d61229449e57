package pngx

// Dispatch picks which quantize strategy to run for this image. LossyType
// is a closed three-variant sum type (Palette256, ReducedRGBA32,
// LimitedRGBA4444), and this match is exhaustive on the caller's explicit
// choice alone: nothing here overrides opts.LossyType based on image
// statistics. stats is accepted because every caller has already run the
// image analyzer by this point in the pipeline, not because Dispatch
// itself consults it.
func Dispatch(stats ImageStats, opts Options) LossyType {
	switch opts.LossyType {
	case ReducedRGBA32:
		return ReducedRGBA32
	case LimitedRGBA4444:
		return LimitedRGBA4444
	default:
		return Palette256
	}
}
