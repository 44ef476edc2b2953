package datasource

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"chart-feed/src/config"
	"chart-feed/src/interfaces"
	"chart-feed/src/models"
)

// -----------------------------------------------------------------------------

// NewValueSource builds the synthetic source described by a session config.
func NewValueSource(cfg models.MSessionConfig) (interfaces.IValueSource, error) {
	g := cfg.Generator
	if g.Max <= g.Min {
		return nil, fmt.Errorf("generator range [%v, %v) is empty", g.Min, g.Max)
	}

	seed := g.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))

	switch g.Policy {
	case config.PolicyUniform:
		return &UniformSource{name: cfg.Name + "/uniform", min: g.Min, max: g.Max, rng: rng}, nil
	case config.PolicyRandomWalk:
		return &RandomWalkSource{name: cfg.Name + "/random_walk", min: g.Min, max: g.Max, step: g.Step, rng: rng}, nil
	default:
		return nil, fmt.Errorf("unsupported generator policy: %s", g.Policy)
	}
}

// -----------------------------------------------------------------------------
// UniformSource draws every value uniformly from [min, max).
// -----------------------------------------------------------------------------

type UniformSource struct {
	name     string
	min, max float64

	mu  sync.Mutex
	rng *rand.Rand
}

func (s *UniformSource) Name() string {
	return s.name
}

// Fetch never fails.
func (s *UniformSource) Fetch(ctx context.Context) (models.MReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.MReading{Value: s.min + s.rng.Float64()*(s.max-s.min)}, nil
}

// -----------------------------------------------------------------------------
// RandomWalkSource moves from the previous value by uniform(-step, step),
// clamped to [min, max]. The first value is uniform.
// -----------------------------------------------------------------------------

type RandomWalkSource struct {
	name           string
	min, max, step float64

	mu      sync.Mutex
	rng     *rand.Rand
	prev    float64
	started bool
}

func (s *RandomWalkSource) Name() string {
	return s.name
}

// Fetch never fails.
func (s *RandomWalkSource) Fetch(ctx context.Context) (models.MReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.prev = s.min + s.rng.Float64()*(s.max-s.min)
		s.started = true
		return models.MReading{Value: s.prev}, nil
	}

	next := s.prev + (s.rng.Float64()*2-1)*s.step
	s.prev = clamp(next, s.min, s.max)
	return models.MReading{Value: s.prev}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
