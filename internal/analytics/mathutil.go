package analytics

import (
	"math"
	"time"
)

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// clamp bounds v to [lo, hi]. Non-finite values collapse to lo.
func clamp(v, lo, hi float64) float64 {
	if !isFinite(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// meanStddev returns the mean and population standard deviation.
func meanStddev(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

// utcDay returns the UTC calendar day number of t.
func utcDay(t time.Time) int64 {
	return int64(math.Floor(float64(t.UTC().Unix()) / 86400))
}

// daysBetween returns the fractional number of days from a to b.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}
