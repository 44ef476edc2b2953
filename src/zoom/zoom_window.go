package zoom

import (
	"math"
	"strings"
	"sync"

	"chart-feed/src/config"
	"chart-feed/src/helpers"
	"chart-feed/src/models"
)

// ButtonMagnitude is the zoom factor of a single zoom in/out command.
const ButtonMagnitude = 0.05

// Direction of a zoom adjustment.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// ParseDirection accepts "in" or "out", case-insensitive.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return In, nil
	case "out":
		return Out, nil
	}
	return In, helpers.NewValidationError("unknown zoom direction %q", s)
}

// Source is the stream a window looks at.
type Source interface {
	Len() int
	Latest(n int) []models.MSample
}

// -----------------------------------------------------------------------------
// ZoomWindow is the trailing slice of a stream shown to the viewer.
// minVisible <= visible <= len holds after every call, except that visible == len
// while the stream is shorter than minVisible. A fully zoomed-out window follows
// the stream as it grows; zooming in pins it.
// -----------------------------------------------------------------------------

type ZoomWindow struct {
	source     Source
	minVisible int

	mu      sync.Mutex
	visible int
	follow  bool
}

// -----------------------------------------------------------------------------

// NewZoomWindow starts fully zoomed out.
func NewZoomWindow(source Source, minVisible int) *ZoomWindow {
	if minVisible <= 0 {
		minVisible = config.DefaultMinVisible
	}
	return &ZoomWindow{
		source:     source,
		minVisible: minVisible,
		visible:    source.Len(),
		follow:     true,
	}
}

// -----------------------------------------------------------------------------

// Adjust zooms by max(1, floor(visible*magnitude)) samples and returns the new
// visible count. Zooming in at minVisible or out at the stream length is a no-op.
// A non-finite or negative magnitude counts as 0.
func (w *ZoomWindow) Adjust(dir Direction, magnitude float64) int {
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) || magnitude < 0 {
		magnitude = 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	length := w.syncLocked()
	step := max(1, int(math.Floor(float64(w.visible)*magnitude)))

	switch dir {
	case In:
		if w.visible > w.minVisible {
			w.visible = max(w.minVisible, w.visible-step)
			w.follow = false
		}
	case Out:
		w.visible = min(length, w.visible+step)
		w.follow = w.visible == length
	}
	return w.visible
}

// -----------------------------------------------------------------------------

// Reset zooms fully out.
func (w *ZoomWindow) Reset() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.visible = w.source.Len()
	w.follow = true
	return w.visible
}

// -----------------------------------------------------------------------------

// Sync re-clamps the window against the current stream length.
func (w *ZoomWindow) Sync() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.syncLocked()
	return w.visible
}

func (w *ZoomWindow) syncLocked() int {
	length := w.source.Len()

	switch {
	case w.follow || length < w.minVisible:
		w.visible = length
	case w.visible > length:
		w.visible = length
	case w.visible < w.minVisible:
		w.visible = w.minVisible
	}
	if w.visible == length {
		w.follow = true
	}
	return length
}

// -----------------------------------------------------------------------------

// VisibleSlice returns a copy of the trailing visible samples, oldest first.
func (w *ZoomWindow) VisibleSlice() []models.MSample {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.syncLocked()
	return w.source.Latest(w.visible)
}

// -----------------------------------------------------------------------------

func (w *ZoomWindow) VisibleCount() int {
	return w.Sync()
}

func (w *ZoomWindow) MinVisible() int {
	return w.minVisible
}

// -----------------------------------------------------------------------------

// FromWheel turns a wheel delta into a zoom: scrolling down zooms out, by
// |deltaY|/scale. A non-positive scale falls back to the default.
func FromWheel(deltaY, scale float64) (Direction, float64) {
	if scale <= 0 {
		scale = config.DefaultWheelScale
	}
	dir := In
	if deltaY > 0 {
		dir = Out
	}
	return dir, math.Abs(deltaY) / scale
}
