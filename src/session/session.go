package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"chart-feed/src/analysis"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/stream"
	"chart-feed/src/zoom"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrAlreadyRunning  = errors.New("session already running")
	ErrNotRunning      = errors.New("session not running")
)

// -----------------------------------------------------------------------------
// Session is one independent chart: a stream, its zoom window, the highlighted
// point and the periodic task producing samples. Sessions share nothing.
// -----------------------------------------------------------------------------

type Session struct {
	Config models.MSessionConfig
	Logger *logger.Logger
	Stream *stream.SampleStream
	Window *zoom.ZoomWindow

	highlight zoom.Highlight
	publisher interfaces.IPublisher
	recorder  interfaces.IRecorder

	// lifecycle
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
	isRunning  atomic.Bool
	seeded     bool
	paused     atomic.Bool

	// runMu serialises ticks with Stop; stopped is checked under it
	runMu   sync.Mutex
	stopped bool

	// viewMu orders view mutations and publishes
	viewMu      sync.Mutex
	lastVisible int
}

// -----------------------------------------------------------------------------

// NewSession wires a session around an already built stream. publisher and
// recorder may be nil.
func NewSession(cfg models.MSessionConfig, st *stream.SampleStream, publisher interfaces.IPublisher, recorder interfaces.IRecorder, log *logger.Logger) *Session {
	s := &Session{
		Config:    cfg,
		Logger:    log,
		Stream:    st,
		Window:    zoom.NewZoomWindow(st, cfg.Zoom.MinVisible),
		publisher: publisher,
		recorder:  recorder,
	}
	s.lastVisible = s.Window.VisibleCount()
	return s
}

// -----------------------------------------------------------------------------

func (s *Session) Name() string {
	return s.Config.Name
}

func (s *Session) IsRunning() bool {
	return s.isRunning.Load()
}

func (s *Session) IsPaused() bool {
	return s.paused.Load()
}

// -----------------------------------------------------------------------------

// Start seeds the stream on first start, zooms fully out and launches the
// ticker. The session stops when ctx is cancelled or Stop is called.
func (s *Session) Start(parentCtx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("%s: %w", s.Name(), ErrAlreadyRunning)
	}

	if !s.seeded && s.Config.SeedCount > 0 {
		added := s.Stream.Seed(parentCtx, s.Config.SeedCount)
		if s.recorder != nil && added > 0 {
			if err := s.recorder.SaveSamples(s.Name(), s.Stream.Latest(added)); err != nil {
				s.Logger.Warning("Recording seed of %s failed: %v", s.Name(), err)
			}
		}
	}
	s.seeded = true

	s.viewMu.Lock()
	s.Window.Reset()
	s.viewMu.Unlock()

	s.runMu.Lock()
	s.stopped = false
	s.runMu.Unlock()

	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel
	s.done = make(chan struct{})
	s.isRunning.Store(true)

	go s.runLoop(ctx, s.done)
	s.Logger.Info("Started session %s (interval %v, capacity %d)", s.Name(), s.Stream.Interval(), s.Stream.Capacity())

	s.publish()
	return nil
}

// -----------------------------------------------------------------------------

// Stop cancels the periodic task and waits for it. No tick is applied after
// Stop returns.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("%s: %w", s.Name(), ErrNotRunning)
	}

	s.cancelFunc()

	s.runMu.Lock()
	s.stopped = true
	s.runMu.Unlock()

	<-s.done
	s.cancelFunc = nil
	s.isRunning.Store(false)

	s.Logger.Info("Stopped session %s after %d samples", s.Name(), s.Stream.Produced())
	return nil
}

// -----------------------------------------------------------------------------

func (s *Session) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Stream.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

func (s *Session) tick(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.stopped || ctx.Err() != nil || s.paused.Load() {
		return
	}

	sample, ok := s.Stream.Tick(ctx)
	if !ok {
		return
	}

	if s.recorder != nil {
		if err := s.recorder.SaveSamples(s.Name(), []models.MSample{sample}); err != nil {
			s.Logger.Warning("Recording %s failed: %v", s.Name(), err)
		}
	}
	s.publish()
}

// -----------------------------------------------------------------------------

// Pause skips production until Resume; the cadence keeps running.
func (s *Session) Pause() models.MViewState {
	s.paused.Store(true)
	return s.publish()
}

func (s *Session) Resume() models.MViewState {
	s.paused.Store(false)
	return s.publish()
}

// -----------------------------------------------------------------------------

// Zoom adjusts the window and publishes the resulting view.
func (s *Session) Zoom(dir zoom.Direction, magnitude float64) models.MViewState {
	return s.mutate(func() {
		s.Window.Adjust(dir, magnitude)
	})
}

// Wheel zooms by a wheel delta.
func (s *Session) Wheel(deltaY float64) models.MViewState {
	dir, magnitude := zoom.FromWheel(deltaY, s.Config.Zoom.WheelScale)
	return s.Zoom(dir, magnitude)
}

func (s *Session) ResetZoom() models.MViewState {
	return s.mutate(func() {
		s.Window.Reset()
	})
}

// -----------------------------------------------------------------------------

// Pointer highlights the sample under offsetX on a surface surfaceWidth wide.
func (s *Session) Pointer(offsetX, surfaceWidth float64) models.MViewState {
	return s.mutate(func() {
		idx, ok := zoom.ActiveIndex(offsetX, surfaceWidth, s.Window.VisibleCount())
		if !ok {
			s.highlight.Clear()
			return
		}
		s.highlight.Set(idx)
	})
}

func (s *Session) PointerLeave() models.MViewState {
	return s.mutate(func() {
		s.highlight.Clear()
	})
}

// -----------------------------------------------------------------------------

// View returns the current view without publishing it.
func (s *Session) View() models.MViewState {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.buildViewLocked(models.ViewUpdate)
}

// InitialView is the first view sent to a new subscriber.
func (s *Session) InitialView() models.MViewState {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.buildViewLocked(models.ViewInitial)
}

// -----------------------------------------------------------------------------

func (s *Session) Status() models.MSessionStatus {
	return models.MSessionStatus{
		Name:         s.Name(),
		Symbol:       s.Config.Symbol,
		IsRunning:    s.IsRunning(),
		Paused:       s.IsPaused(),
		StreamLength: s.Stream.Len(),
		Capacity:     s.Stream.Capacity(),
		VisibleCount: s.Window.VisibleCount(),
		Produced:     s.Stream.Produced(),
	}
}

// -----------------------------------------------------------------------------

func (s *Session) mutate(fn func()) models.MViewState {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.syncVisibleLocked(s.Window.VisibleCount())
	fn()
	return s.publishLocked()
}

func (s *Session) syncVisibleLocked(visible int) {
	if visible != s.lastVisible {
		s.highlight.Clear()
		s.lastVisible = visible
	}
}

func (s *Session) publish() models.MViewState {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.publishLocked()
}

func (s *Session) publishLocked() models.MViewState {
	view := s.buildViewLocked(models.ViewUpdate)
	if s.publisher != nil {
		s.publisher.Publish(view)
	}
	return view
}

// buildViewLocked snapshots the window. The highlight is dropped whenever the
// visible count moved, so it never points past the slice.
func (s *Session) buildViewLocked(kind string) models.MViewState {
	samples := s.Window.VisibleSlice()
	visible := len(samples)
	s.syncVisibleLocked(visible)

	var highlight *int
	if idx, ok := s.highlight.Get(); ok && idx < visible {
		highlight = &idx
	}

	return models.MViewState{
		Type:         kind,
		Session:      s.Name(),
		Samples:      samples,
		VisibleCount: visible,
		StreamLength: s.Stream.Len(),
		MinVisible:   s.Window.MinVisible(),
		Highlight:    highlight,
		Bounds:       analysis.Summarize(samples),
		Paused:       s.IsPaused(),
		Timestamp:    time.Now().UnixMilli(),
	}
}
