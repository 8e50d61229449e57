package colopresso

import "runtime"

// Version is this module's semantic version.
const Version = "1.0.0"

// GetVersion returns this module's semantic version string.
func GetVersion() string { return Version }

// GetDefaultThreadCount returns the thread count Normalize falls back to
// when a caller leaves Threads at zero.
func GetDefaultThreadCount() int { return runtime.GOMAXPROCS(0) }

// GetMaxThreadCount returns the largest thread count this build will
// honor for a single encode call.
func GetMaxThreadCount() int { return runtime.NumCPU() }

// IsThreadsEnabled reports whether this build can use more than one
// goroutine per encode call. Always true: the quantizer's parallelFor
// has no single-threaded-only build mode.
func IsThreadsEnabled() bool { return true }
