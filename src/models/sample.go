package models

import "encoding/json"

// SampleKind tags a sample as a plain point or a bar-close marker.
type SampleKind string

const (
	KindContinuous SampleKind = "continuous"
	KindMarker     SampleKind = "marker"
)

// -----------------------------------------------------------------------------
// MSample is one immutable point of a stream.
// Open and Close only carry meaning when Kind == KindMarker.
// -----------------------------------------------------------------------------

type MSample struct {
	Timestamp int64
	Value     float64
	Kind      SampleKind
	Open      float64
	Close     float64
}

// -----------------------------------------------------------------------------

// NewContinuous builds a plain sample.
func NewContinuous(timestamp int64, value float64) MSample {
	return MSample{Timestamp: timestamp, Value: value, Kind: KindContinuous}
}

// -----------------------------------------------------------------------------

// NewMarker builds a sample carrying an open/close pair.
func NewMarker(timestamp int64, value, open, close float64) MSample {
	return MSample{Timestamp: timestamp, Value: value, Kind: KindMarker, Open: open, Close: close}
}

// -----------------------------------------------------------------------------

func (s MSample) IsMarker() bool {
	return s.Kind == KindMarker
}

// -----------------------------------------------------------------------------

// OpenClose returns the marker pair, ok is false for continuous samples.
func (s MSample) OpenClose() (open, close float64, ok bool) {
	if !s.IsMarker() {
		return 0, 0, false
	}
	return s.Open, s.Close, true
}

// -----------------------------------------------------------------------------

type sampleJSON struct {
	Timestamp int64      `json:"timestamp"`
	Value     float64    `json:"value"`
	Kind      SampleKind `json:"kind"`
	Open      *float64   `json:"open,omitempty"`
	Close     *float64   `json:"close,omitempty"`
}

// MarshalJSON emits open/close only for markers.
func (s MSample) MarshalJSON() ([]byte, error) {
	out := sampleJSON{Timestamp: s.Timestamp, Value: s.Value, Kind: s.Kind}
	if out.Kind == "" {
		out.Kind = KindContinuous
	}
	if open, close, ok := s.OpenClose(); ok {
		out.Open = &open
		out.Close = &close
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both variants; a sample with open and close becomes a marker.
func (s *MSample) UnmarshalJSON(data []byte) error {
	var in sampleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Open != nil && in.Close != nil {
		*s = NewMarker(in.Timestamp, in.Value, *in.Open, *in.Close)
		return nil
	}
	*s = NewContinuous(in.Timestamp, in.Value)
	return nil
}
