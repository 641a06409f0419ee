package profiling

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Dividers returns bins+1 evenly spaced bin edges covering values. The
// range is [min, max+1) so integer data such as ages never lands on the
// open upper edge.
func Dividers(values []float64, bins int) []float64 {
	if bins < 1 {
		bins = 1
	}
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = floats.Min(values), floats.Max(values)+1
	}
	return floats.Span(make([]float64, bins+1), lo, hi)
}

// Counts bins values into the intervals defined by dividers. Values outside
// the dividers are ignored.
func Counts(values, dividers []float64) []float64 {
	counts := make([]float64, len(dividers)-1)
	if len(values) == 0 {
		return counts
	}

	lo, hi := dividers[0], dividers[len(dividers)-1]
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v < hi && !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return counts
	}
	sort.Float64s(sorted)
	return stat.Histogram(counts, dividers, sorted, nil)
}
