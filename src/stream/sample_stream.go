package stream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"chart-feed/src/config"
	"chart-feed/src/helpers"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/utils"
)

// ErrOutOfOrder is returned by Append for a sample older than the current tail.
var ErrOutOfOrder = errors.New("sample timestamp precedes stream tail")

// -----------------------------------------------------------------------------

// Options configure a SampleStream.
type Options struct {
	Name          string
	Capacity      int // 0 = unbounded
	Interval      time.Duration
	FetchTimeout  time.Duration
	TimestampMode string // config.TimestampWall or config.TimestampOrdinal
	Marker        models.MMarkerConfig
	Gate          *utils.MarketHoursGate // nil = always open
	Now           func() time.Time
}

// OptionsFromConfig maps a session block onto stream options.
func OptionsFromConfig(cfg models.MSessionConfig) Options {
	return Options{
		Name:          cfg.Name,
		Capacity:      cfg.Capacity,
		Interval:      time.Duration(cfg.IntervalMs) * time.Millisecond,
		FetchTimeout:  time.Duration(cfg.FetchTimeoutMs) * time.Millisecond,
		TimestampMode: cfg.TimestampMode,
		Marker:        cfg.Marker,
	}
}

// -----------------------------------------------------------------------------
// SampleStream owns the capacity-bounded history of one session and the policy
// that produces new samples. Production (Tick, Seed) is serialised; readers get
// copies and never block on a fetch.
// -----------------------------------------------------------------------------

type SampleStream struct {
	opts   Options
	source interfaces.IValueSource
	Logger *logger.Logger
	errs   *helpers.ErrorHandler

	// production state, guarded by prodMu
	prodMu  sync.Mutex
	history []float64 // last Marker.Lag produced values, oldest first

	// retained samples, guarded by mu
	mu       sync.RWMutex
	buf      *utils.RingBuffer
	produced int64
}

// -----------------------------------------------------------------------------

func NewSampleStream(opts Options, source interfaces.IValueSource, log *logger.Logger) *SampleStream {
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultIntervalMs * time.Millisecond
	}
	if opts.FetchTimeout <= 0 || opts.FetchTimeout > opts.Interval {
		opts.FetchTimeout = opts.Interval / 2
	}
	if opts.TimestampMode == "" {
		opts.TimestampMode = config.TimestampWall
	}
	if opts.Marker.Mode == "" {
		opts.Marker.Mode = config.MarkerLaggedClose
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SampleStream{
		opts:   opts,
		source: source,
		Logger: log,
		errs:   helpers.NewErrorHandler(log, 10),
		buf:    utils.NewRingBuffer(opts.Capacity),
	}
}

// -----------------------------------------------------------------------------

func (s *SampleStream) Name() string {
	return s.opts.Name
}

// Interval is the production period.
func (s *SampleStream) Interval() time.Duration {
	return s.opts.Interval
}

// -----------------------------------------------------------------------------

// Tick produces one sample and appends it. It returns false for a no-op tick:
// the market is closed, or the source failed, timed out, or returned a
// malformed or stale reading. Failures are logged, never returned.
func (s *SampleStream) Tick(ctx context.Context) (models.MSample, bool) {
	s.prodMu.Lock()
	defer s.prodMu.Unlock()

	if !s.opts.Gate.IsOpen() {
		return models.MSample{}, false
	}

	reading, err := s.fetch(ctx)
	if err != nil {
		s.errs.Handle(helpers.NewSourceError(s.source.Name(), err), "tick "+s.opts.Name)
		return models.MSample{}, false
	}
	s.errs.ResetErrorCount()

	ts := reading.Timestamp
	if ts == 0 {
		ts = s.clockTimestamp()
	} else if last, ok := s.tail(); ok && ts < last {
		s.Logger.Debug("Dropping stale reading for %s: %d < %d", s.opts.Name, ts, last)
		return models.MSample{}, false
	}

	sample := s.produce(ts, reading.Value)
	s.mu.Lock()
	s.buf.Append(sample)
	s.produced++
	s.mu.Unlock()

	return sample, true
}

// -----------------------------------------------------------------------------

// Seed pre-fills the stream with a burst of n produced samples. In wall mode the
// burst is stamped one interval apart, ending now. Returns how many were added.
func (s *SampleStream) Seed(ctx context.Context, n int) int {
	s.prodMu.Lock()
	defer s.prodMu.Unlock()

	now := s.opts.Now().UnixMilli()
	step := s.opts.Interval.Milliseconds()
	added := 0

	for i := 0; i < n; i++ {
		reading, err := s.fetch(ctx)
		if err != nil {
			s.errs.Handle(helpers.NewSourceError(s.source.Name(), err), "seed "+s.opts.Name)
			continue
		}

		var ts int64
		if s.opts.TimestampMode == config.TimestampOrdinal {
			ts = s.clockTimestamp()
		} else {
			ts = now - int64(n-1-i)*step
			if last, ok := s.tail(); ok && ts < last {
				ts = last
			}
		}

		sample := s.produce(ts, reading.Value)
		s.mu.Lock()
		s.buf.Append(sample)
		s.produced++
		s.mu.Unlock()
		added++
	}

	s.Logger.Info("Seeded %s with %d/%d samples", s.opts.Name, added, n)
	return added
}

// -----------------------------------------------------------------------------

// Append adds an externally built sample at the tail, evicting the head when at
// capacity. It does not count towards marker periodicity.
func (s *SampleStream) Append(sample models.MSample) error {
	if math.IsNaN(sample.Value) || math.IsInf(sample.Value, 0) {
		return fmt.Errorf("append to %s: value is not finite", s.opts.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.buf.Last(); ok && sample.Timestamp < last.Timestamp {
		return fmt.Errorf("append to %s: %w (%d < %d)", s.opts.Name, ErrOutOfOrder, sample.Timestamp, last.Timestamp)
	}
	s.buf.Append(sample)
	return nil
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of the retained history, oldest first.
func (s *SampleStream) Snapshot() []models.MSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.GetAll()
}

// Latest returns a copy of the last min(n, Len()) samples.
func (s *SampleStream) Latest(n int) []models.MSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.GetLatest(n)
}

// Len is the number of retained samples.
func (s *SampleStream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Size()
}

// Capacity is the retention bound, 0 when unbounded.
func (s *SampleStream) Capacity() int {
	return s.buf.Capacity()
}

// Produced counts samples produced by Tick and Seed since creation.
func (s *SampleStream) Produced() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.produced
}

// -----------------------------------------------------------------------------

// fetch calls the source under the fetch deadline. A source that ignores ctx is
// abandoned when the deadline passes so the tick still returns on time.
func (s *SampleStream) fetch(ctx context.Context) (models.MReading, error) {
	fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	type result struct {
		reading models.MReading
		err     error
	}
	done := make(chan result, 1)
	go func() {
		r, err := s.source.Fetch(fctx)
		done <- result{r, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return models.MReading{}, res.err
		}
		if math.IsNaN(res.reading.Value) || math.IsInf(res.reading.Value, 0) {
			return models.MReading{}, fmt.Errorf("malformed reading: %v", res.reading.Value)
		}
		return res.reading, nil
	case <-fctx.Done():
		return models.MReading{}, fctx.Err()
	}
}

// -----------------------------------------------------------------------------

func (s *SampleStream) tail() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	last, ok := s.buf.Last()
	return last.Timestamp, ok
}

// clockTimestamp stamps a new sample, never going backwards.
func (s *SampleStream) clockTimestamp() int64 {
	last, ok := s.tail()

	var ts int64
	if s.opts.TimestampMode == config.TimestampOrdinal {
		ts = last + 1
		if !ok {
			ts = 1
		}
		return ts
	}

	ts = s.opts.Now().UnixMilli()
	if ok && ts < last {
		ts = last
	}
	return ts
}
