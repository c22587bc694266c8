package analytics

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean of values, or 0 for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev returns the population standard deviation of values
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// percentileBounds returns the 5th and 95th percentile boundaries of values.
// The lower bound is the value at index floor(0.05*n) of the sorted sample,
// the upper bound the value at index ceil(0.95*n)-1, so a sample of 1..20
// yields (2, 19).
func percentileBounds(values []float64) (p5, p95 float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	lo := int(math.Floor(0.05 * n))
	hi := int(math.Ceil(0.95*n)) - 1
	if hi < 0 {
		hi = 0
	}
	if lo > len(sorted)-1 {
		lo = len(sorted) - 1
	}
	return sorted[lo], sorted[hi]
}

// sampleStats computes the summary a detection pass reports alongside its
// anomalies
func sampleStats(values []float64) Stats {
	p5, p95 := percentileBounds(values)
	return Stats{
		Mean:         mean(values),
		Std:          stddev(values),
		Percentile5:  p5,
		Percentile95: p95,
		SampleSize:   len(values),
	}
}
