package zoom

import (
	"math"
	"sync"
)

// ActiveIndex maps a pointer position on the drawing surface to an index into a
// slice of visibleCount samples. ok is false when nothing can be located.
func ActiveIndex(offsetX, surfaceWidth float64, visibleCount int) (int, bool) {
	if visibleCount <= 0 || !(surfaceWidth > 0) || math.IsInf(surfaceWidth, 1) || math.IsNaN(offsetX) {
		return 0, false
	}
	if visibleCount == 1 {
		return 0, true
	}

	// clamp before converting, an infinite offset pins to an edge
	pos := math.Round(offsetX / surfaceWidth * float64(visibleCount-1))
	pos = math.Max(0, math.Min(pos, float64(visibleCount-1)))
	return int(pos), true
}

// -----------------------------------------------------------------------------

// Highlight is the single highlighted index of a view, if any.
type Highlight struct {
	mu    sync.Mutex
	index int
	set   bool
}

func (h *Highlight) Set(index int) {
	h.mu.Lock()
	h.index, h.set = index, true
	h.mu.Unlock()
}

// Clear drops the highlight, e.g. when the pointer leaves the surface.
func (h *Highlight) Clear() {
	h.mu.Lock()
	h.set = false
	h.mu.Unlock()
}

func (h *Highlight) Get() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index, h.set
}
