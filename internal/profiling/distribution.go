package profiling

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// addShape fills quartiles, moments and the IQR outlier count of a column
// whose mean and sample standard deviation are already set
func addShape(s *FieldSummary, data stats.Float64Data) {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	s.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	s.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	if s.StdDev == 0 {
		return
	}
	s.Skewness = skewness(data, s.Mean, s.StdDev)
	s.Kurtosis = excessKurtosis(data, s.Mean, s.StdDev)
	s.Outliers = countOutliers(data, s.Q25, s.Q75)
}

// skewness is the adjusted Fisher-Pearson coefficient
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 {
		return 0
	}

	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// excessKurtosis is the bias-corrected sample excess kurtosis
func excessKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 {
		return 0
	}

	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d * d
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*sum - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// countOutliers counts values outside 1.5 IQR of the quartiles
func countOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	count := 0
	for _, x := range data {
		if x < lower || x > upper {
			count++
		}
	}
	return count
}
