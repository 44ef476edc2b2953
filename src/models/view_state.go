package models

// View message types
const (
	ViewInitial = "INITIAL"
	ViewUpdate  = "UPDATE"
)

// -----------------------------------------------------------------------------
// MViewState is everything a renderer needs to redraw one session.
// -----------------------------------------------------------------------------

type MViewState struct {
	Type         string    `json:"type"` // "INITIAL" or "UPDATE"
	Session      string    `json:"session"`
	Samples      []MSample `json:"samples"`
	VisibleCount int       `json:"visible_count"`
	StreamLength int       `json:"stream_length"`
	MinVisible   int       `json:"min_visible"`
	Highlight    *int      `json:"highlight"`
	Bounds       MBounds   `json:"bounds"`
	Paused       bool      `json:"paused"`
	Timestamp    int64     `json:"timestamp"`
}

// MBounds summarises the values of the visible samples.
type MBounds struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Change float64 `json:"change"` // last minus first
}

// -----------------------------------------------------------------------------
// MClientCommand is a message sent by a renderer over the websocket
// -----------------------------------------------------------------------------

type MClientCommand struct {
	Command      string   `json:"command"`
	Session      string   `json:"session"`
	Magnitude    *float64 `json:"magnitude,omitempty"`
	DeltaY       float64  `json:"delta_y"`
	OffsetX      float64  `json:"offset_x"`
	SurfaceWidth float64  `json:"surface_width"`
}

// MSessionStatus summarises one session for listings.
type MSessionStatus struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	IsRunning    bool   `json:"is_running"`
	Paused       bool   `json:"paused"`
	StreamLength int    `json:"stream_length"`
	Capacity     int    `json:"capacity"`
	VisibleCount int    `json:"visible_count"`
	Produced     int64  `json:"produced"`
}

// MZoomRequest is the body of POST /api/sessions/:name/zoom.
type MZoomRequest struct {
	Direction string   `json:"direction" binding:"required"`
	Magnitude *float64 `json:"magnitude,omitempty"`
}
