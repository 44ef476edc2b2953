package zoom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveIndex(t *testing.T) {
	tests := []struct {
		name    string
		offsetX float64
		width   float64
		visible int
		want    int
		ok      bool
	}{
		{"three quarters", 150, 200, 10, 7, true},
		{"left edge", 0, 200, 10, 0, true},
		{"right edge", 200, 200, 10, 9, true},
		{"past right edge", 260, 200, 10, 9, true},
		{"left of surface", -20, 200, 10, 0, true},
		{"single point", 120, 200, 1, 0, true},
		{"zero width", 10, 0, 10, 0, false},
		{"empty view", 10, 200, 0, 0, false},
		{"infinitely right", math.Inf(1), 200, 10, 9, true},
		{"infinitely left", math.Inf(-1), 200, 10, 0, true},
		{"NaN offset", math.NaN(), 200, 10, 0, false},
		{"NaN width", 10, math.NaN(), 10, 0, false},
		{"single point, infinite offset", math.Inf(1), 200, 1, 0, true},
		{"infinite width", 10, math.Inf(1), 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ActiveIndex(tt.offsetX, tt.width, tt.visible)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHighlight(t *testing.T) {
	var h Highlight

	_, ok := h.Get()
	assert.False(t, ok)

	h.Set(4)
	idx, ok := h.Get()
	assert.True(t, ok)
	assert.Equal(t, 4, idx)

	h.Clear()
	_, ok = h.Get()
	assert.False(t, ok)
}
