package valuation

import "math"

// Confidence scores agreement between approach values on a 0-100 scale.
// Only positive values take part. With fewer than two of them the score is
// DefaultConfidence. Otherwise the population coefficient of variation is
// scaled by ConfidenceScale and subtracted from 100, clamped to [0, 100].
func Confidence(values ...float64) float64 {
	positive := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) < 2 {
		return DefaultConfidence
	}

	mean, stdDev := meanStdDev(positive)
	cv := stdDev / mean
	return clamp(100-cv*ConfidenceScale, 0, 100)
}

// meanStdDev returns the mean and population standard deviation of xs.
// An empty slice yields zeros.
func meanStdDev(xs []float64) (mean, stdDev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= n
	return mean, math.Sqrt(variance)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
