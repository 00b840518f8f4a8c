package render

import (
	"math"
	"time"
)

// EaseInOutCubic maps t in [0,1] onto a cubic ease-in-ease-out curve.
// Inputs outside [0,1] are clamped.
func EaseInOutCubic(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Progress returns the eased fraction of an animation of the given duration
// after elapsed time. It is non-decreasing in elapsed and exactly 1 once
// elapsed >= duration. A non-positive duration completes immediately.
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 || elapsed >= duration {
		return 1
	}
	return EaseInOutCubic(float64(elapsed) / float64(duration))
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
