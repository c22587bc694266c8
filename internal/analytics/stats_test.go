package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, mean(values), 1e-9)
	assert.InDelta(t, 2.0, stddev(values), 1e-9)

	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 0.0, stddev(nil))
}

func TestStddevIsPopulation(t *testing.T) {
	// Population std of [1..9]*1 and 100: mean 10.9
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 100}
	assert.InDelta(t, 29.7, stddev(values), 0.01)
}

func TestPercentileBounds(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}
	p5, p95 := percentileBounds(values)
	assert.Equal(t, 2.0, p5)
	assert.Equal(t, 19.0, p95)
}

func TestPercentileBoundsSmallSamples(t *testing.T) {
	p5, p95 := percentileBounds([]float64{7})
	assert.Equal(t, 7.0, p5)
	assert.Equal(t, 7.0, p95)

	p5, p95 = percentileBounds([]float64{3, 1})
	assert.Equal(t, 1.0, p5)
	assert.Equal(t, 3.0, p95)
}

func TestSampleStats(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	s := sampleStats(values)
	assert.Equal(t, 30.0, s.Mean)
	assert.Equal(t, 5, s.SampleSize)
	assert.Equal(t, 10.0, s.Percentile5)
	assert.Equal(t, 50.0, s.Percentile95)
}
