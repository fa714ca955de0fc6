// Package video assembles rendered frames into MJPEG AVI files and
// provides the timing helpers for trajectory playback.
package video

import "math"

// DefaultFPS is the fallback frame rate when a recording is too short to
// estimate one.
const DefaultFPS = 30.0

// FPSFromTimestamps estimates the mean frame rate of a recording from its
// millisecond timestamps as sample count over total duration. Recordings
// with fewer than two samples, or spanning no time, report DefaultFPS.
func FPSFromTimestamps(ms []float64) float64 {
	if len(ms) < 2 {
		return DefaultFPS
	}
	last := ms[len(ms)-1]
	if last <= 0 {
		return DefaultFPS
	}
	return float64(len(ms)) / (last / 1000.0)
}

// FramesToRepeat reports how many times the frame at currentMs must be
// written so playback at meanFPS spans the gap since previousMs. Always
// at least one.
func FramesToRepeat(currentMs, previousMs, meanFPS float64) int {
	n := int(math.Round((currentMs - previousMs) / 1000.0 * meanFPS))
	if n < 1 {
		return 1
	}
	return n
}
