package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/aigym/analytics-api/internal/models"
)

// Numeric helpers shared by the calculator, benchmark and dashboard services.
// Scores are rounded to two decimals, percentile cut points to one.

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// mean returns the arithmetic mean rounded to two decimals, 0 for an empty
// input.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return round2(sum / float64(len(values)))
}

// medianInt returns the median of integer-valued samples, rounding halves up.
func medianInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
	}
	return sorted[mid]
}

// stdDev returns the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// percentileLevels are the distribution cut points stored per benchmark.
var percentileLevels = []int{10, 25, 50, 75, 90}

// percentiles computes the P10..P90 distribution by nearest-rank lookup into
// the sorted sample. An empty sample yields an empty map.
func percentiles(values []float64) models.Percentiles {
	result := models.Percentiles{}
	if len(values) == 0 {
		return result
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	for _, level := range percentileLevels {
		idx := int(math.Floor(float64(level) / 100 * float64(len(sorted))))
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		result[percentileKey(level)] = round1(sorted[idx])
	}
	return result
}

func percentileKey(level int) string {
	return fmt.Sprintf("P%d", level)
}
