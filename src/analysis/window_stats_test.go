package analysis

import (
	"testing"

	"chart-feed/src/models"

	"github.com/stretchr/testify/assert"
)

func samplesOf(values ...float64) []models.MSample {
	out := make([]models.MSample, len(values))
	for i, v := range values {
		out[i] = models.MSample{Timestamp: int64(i), Value: v}
	}
	return out
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, models.MBounds{}, Summarize(nil))
	})

	t.Run("single", func(t *testing.T) {
		b := Summarize(samplesOf(7))
		assert.Equal(t, models.MBounds{Min: 7, Max: 7, Mean: 7}, b)
	})

	t.Run("several", func(t *testing.T) {
		b := Summarize(samplesOf(2, 4, 4, 4, 5, 5, 7, 9))
		assert.Equal(t, 2.0, b.Min)
		assert.Equal(t, 9.0, b.Max)
		assert.InDelta(t, 5.0, b.Mean, 1e-9)
		assert.InDelta(t, 2.0, b.Std, 1e-9)
		assert.Equal(t, 7.0, b.Change)
	})

	t.Run("falling", func(t *testing.T) {
		b := Summarize(samplesOf(10, 3))
		assert.Equal(t, -7.0, b.Change)
	})
}
