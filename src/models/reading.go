package models

// MReading is a single (timestamp, value) pair pulled from a value source.
// A zero Timestamp asks the stream to stamp it with its own clock.
type MReading struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}
