package stream

import (
	"chart-feed/src/config"
	"chart-feed/src/models"
)

// produce turns a fresh value into the next sample. Every Marker.Period-th
// produced sample is a marker pairing the current value with the value produced
// Marker.Lag samples earlier, or the oldest one known while history is short.
// Caller holds prodMu.
func (s *SampleStream) produce(ts int64, value float64) models.MSample {
	n := s.produced + 1
	m := s.opts.Marker

	sample := models.NewContinuous(ts, value)
	if !m.Disabled && m.Period > 0 && n%int64(m.Period) == 0 {
		earlier := s.valueAgo(m.Lag, value)
		switch m.Mode {
		case config.MarkerLaggedOpen:
			sample = models.NewMarker(ts, value, earlier, value)
		case config.MarkerCurrent:
			sample = models.NewMarker(ts, value, value, value)
		default:
			sample = models.NewMarker(ts, value, value, earlier)
		}
	}

	s.remember(value)
	return sample
}

// -----------------------------------------------------------------------------

func (s *SampleStream) valueAgo(lag int, current float64) float64 {
	if lag <= 0 || len(s.history) == 0 {
		return current
	}
	if len(s.history) >= lag {
		return s.history[len(s.history)-lag]
	}
	return s.history[0]
}

// -----------------------------------------------------------------------------

func (s *SampleStream) remember(value float64) {
	lag := s.opts.Marker.Lag
	if lag <= 0 {
		return
	}
	s.history = append(s.history, value)
	if len(s.history) > lag {
		// shift in place so the backing array does not creep
		copy(s.history, s.history[len(s.history)-lag:])
		s.history = s.history[:lag]
	}
}
