package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chart-feed/src/config"
	datasource "chart-feed/src/data_source"
	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/zoom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu    sync.Mutex
	views []models.MViewState
}

func (p *fakePublisher) Publish(view models.MViewState) {
	p.mu.Lock()
	p.views = append(p.views, view)
	p.mu.Unlock()
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}

func (p *fakePublisher) last() models.MViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.views[len(p.views)-1]
}

type fakeRecorder struct {
	mu      sync.Mutex
	samples map[string][]models.MSample
}

func (r *fakeRecorder) Initialize() error { return nil }

func (r *fakeRecorder) SaveSamples(session string, samples []models.MSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.samples == nil {
		r.samples = make(map[string][]models.MSample)
	}
	r.samples[session] = append(r.samples[session], samples...)
	return nil
}

func (r *fakeRecorder) CleanupOldData() error { return nil }
func (r *fakeRecorder) Close() error          { return nil }

func (r *fakeRecorder) count(session string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples[session])
}

// -----------------------------------------------------------------------------

func testConfig(name string, intervalMs, seed int) models.MSessionConfig {
	cfg := models.MSessionConfig{
		Name:          name,
		IntervalMs:    intervalMs,
		SeedCount:     seed,
		TimestampMode: config.TimestampOrdinal,
	}
	config.ApplySessionDefaults(&cfg)
	return cfg
}

func counting() *datasource.FuncSource {
	var mu sync.Mutex
	n := 0.0
	return &datasource.FuncSource{
		SourceName: "count",
		FetchFunc: func(ctx context.Context) (models.MReading, error) {
			mu.Lock()
			defer mu.Unlock()
			n++
			return models.MReading{Value: n}, nil
		},
	}
}

// idle sessions tick once an hour so tests drive them by hand
func newIdleSession(t *testing.T, seed int) (*Session, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	s := WithSource(testConfig("idle", 3_600_000, seed), counting(), pub, nil, logger.NewNopLogger())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })
	return s, pub
}

// -----------------------------------------------------------------------------

func TestSession_StartSeedsAndPublishes(t *testing.T) {
	s, pub := newIdleSession(t, 20)

	assert.Equal(t, 20, s.Stream.Len())
	require.Equal(t, 1, pub.count())

	view := pub.last()
	assert.Equal(t, models.ViewUpdate, view.Type)
	assert.Equal(t, "idle", view.Session)
	assert.Equal(t, 20, view.VisibleCount)
	assert.Len(t, view.Samples, 20)
	assert.Equal(t, 1.0, view.Bounds.Min)
	assert.Equal(t, 20.0, view.Bounds.Max)
	assert.Equal(t, 10.5, view.Bounds.Mean)
	assert.Equal(t, 19.0, view.Bounds.Change)
	assert.Nil(t, view.Highlight)

	assert.Equal(t, models.ViewInitial, s.InitialView().Type)
}

func TestSession_SeedIsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	s := WithSource(testConfig("seeded", 3_600_000, 15), counting(), nil, rec, logger.NewNopLogger())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, int64(15), s.Stream.Produced())
	assert.Equal(t, 15, rec.count("seeded"))

	// a restart does not seed or record again
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 15, rec.count("seeded"))
}

func TestSession_LifecycleErrors(t *testing.T) {
	s, _ := newIdleSession(t, 0)

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)

	// restart keeps history and does not reseed
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
}

func TestSession_TicksUntilStopped(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	s := WithSource(testConfig("fast", 5, 0), counting(), pub, rec, logger.NewNopLogger())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return s.Stream.Len() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	produced := s.Stream.Produced()
	length := s.Stream.Len()
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, produced, s.Stream.Produced())
	assert.Equal(t, length, s.Stream.Len())
	assert.Equal(t, int(produced), rec.count("fast"))
	assert.False(t, s.IsRunning())
}

func TestSession_ContextCancelStopsTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := WithSource(testConfig("ctx", 5, 0), counting(), nil, nil, logger.NewNopLogger())

	require.NoError(t, s.Start(ctx))
	require.Eventually(t, func() bool { return s.Stream.Len() >= 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, s.Stop())

	n := s.Stream.Len()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, s.Stream.Len())
}

func TestSession_PauseSkipsProduction(t *testing.T) {
	s := WithSource(testConfig("pause", 5, 0), counting(), nil, nil, logger.NewNopLogger())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	view := s.Pause()
	assert.True(t, view.Paused)

	// let any tick already past the paused check finish
	time.Sleep(20 * time.Millisecond)
	before := s.Stream.Produced()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, before, s.Stream.Produced())

	assert.False(t, s.Resume().Paused)
	require.Eventually(t, func() bool { return s.Stream.Produced() > before }, 2*time.Second, 5*time.Millisecond)
}

func TestSession_FailingSourceKeepsRunning(t *testing.T) {
	src := datasource.FuncSource{
		SourceName: "down",
		FetchFunc: func(ctx context.Context) (models.MReading, error) {
			return models.MReading{}, errors.New("down")
		},
	}
	pub := &fakePublisher{}
	s := WithSource(testConfig("down", 5, 0), src, pub, nil, logger.NewNopLogger())
	require.NoError(t, s.Start(context.Background()))

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, 0, s.Stream.Len())
	assert.Equal(t, 1, pub.count()) // only the start view
}

// -----------------------------------------------------------------------------

func TestSession_ZoomAndReset(t *testing.T) {
	s, pub := newIdleSession(t, 20)

	view := s.Zoom(zoom.In, zoom.ButtonMagnitude)
	assert.Equal(t, 19, view.VisibleCount)
	assert.Len(t, view.Samples, 19)
	assert.Equal(t, 2.0, view.Samples[0].Value)
	assert.Equal(t, view, pub.last())

	view = s.Wheel(-1500) // magnitude 1, clamps at min visible
	assert.Equal(t, 10, view.VisibleCount)

	view = s.Wheel(150)
	assert.Equal(t, 11, view.VisibleCount)

	view = s.ResetZoom()
	assert.Equal(t, 20, view.VisibleCount)
	assert.Equal(t, 20, s.View().VisibleCount)
}

func TestSession_PointerHighlight(t *testing.T) {
	s, _ := newIdleSession(t, 20)
	s.Wheel(-1500)

	view := s.Pointer(150, 200)
	require.NotNil(t, view.Highlight)
	assert.Equal(t, 7, *view.Highlight)

	view = s.Pointer(10, 0)
	assert.Nil(t, view.Highlight)

	s.Pointer(150, 200)
	view = s.PointerLeave()
	assert.Nil(t, view.Highlight)
}

func TestSession_HighlightClearedOnZoom(t *testing.T) {
	s, _ := newIdleSession(t, 20)

	view := s.Pointer(200, 200)
	require.NotNil(t, view.Highlight)
	assert.Equal(t, 19, *view.Highlight)

	view = s.Zoom(zoom.In, 0.5)
	assert.Nil(t, view.Highlight)

	// a no-op zoom keeps it
	s.Zoom(zoom.In, 0.5)
	s.Pointer(0, 200)
	view = s.Zoom(zoom.In, 0.5)
	require.NotNil(t, view.Highlight)
	assert.Equal(t, 0, *view.Highlight)
}

func TestSession_Status(t *testing.T) {
	s, _ := newIdleSession(t, 15)

	st := s.Status()
	assert.Equal(t, "idle", st.Name)
	assert.True(t, st.IsRunning)
	assert.Equal(t, 15, st.StreamLength)
	assert.Equal(t, 15, st.VisibleCount)
	assert.Equal(t, int64(15), st.Produced)
}
