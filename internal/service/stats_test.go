package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 1.5, mean([]float64{1, 2}))
	assert.Equal(t, 33.33, mean([]float64{10, 30, 60}))
}

func TestMedianInt(t *testing.T) {
	assert.Equal(t, 0, medianInt(nil))
	assert.Equal(t, 2, medianInt([]int{3, 1, 2}))
	assert.Equal(t, 3, medianInt([]int{4, 1, 3, 2}))
	assert.Equal(t, 5, medianInt([]int{5}))
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, stdDev(nil))
	assert.Equal(t, 0.0, stdDev([]float64{7, 7, 7}))
	assert.InDelta(t, 5.0, stdDev([]float64{80, 90}), 1e-9)
}

func TestPercentilesEmpty(t *testing.T) {
	result := percentiles(nil)
	assert.Empty(t, result)
}

func TestPercentiles(t *testing.T) {
	values := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}

	result := percentiles(values)

	assert.Equal(t, 2.0, result["P10"])
	assert.Equal(t, 3.0, result["P25"])
	assert.Equal(t, 6.0, result["P50"])
	assert.Equal(t, 8.0, result["P75"])
	assert.Equal(t, 10.0, result["P90"])
}

func TestPercentilesSingleValue(t *testing.T) {
	result := percentiles([]float64{42.25})

	assert.Len(t, result, 5)
	for _, key := range []string{"P10", "P25", "P50", "P75", "P90"} {
		assert.Equal(t, 42.3, result[key], key)
	}
}
