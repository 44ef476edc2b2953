package analysis

import (
	"math"

	"chart-feed/src/models"
)

// -----------------------------------------------------------------------------

// Summarize computes the value range and spread of the given samples, which a
// renderer uses to scale its value axis. Empty input yields the zero value.
func Summarize(samples []models.MSample) models.MBounds {
	if len(samples) == 0 {
		return models.MBounds{}
	}

	first := samples[0].Value
	b := models.MBounds{Min: first, Max: first}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
		b.Min = math.Min(b.Min, s.Value)
		b.Max = math.Max(b.Max, s.Value)
	}

	b.Mean, b.Std = MeanStd(values)
	b.Change = samples[len(samples)-1].Value - first
	return b
}

// -----------------------------------------------------------------------------

// MeanStd returns the mean and the population standard deviation.
func MeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))
	if len(data) == 1 {
		return mean, 0
	}

	sq := 0.0
	for _, v := range data {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(data)))
}
