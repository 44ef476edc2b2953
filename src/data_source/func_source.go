package datasource

import (
	"context"
	"sync"

	"chart-feed/src/models"
)

// FuncSource adapts a plain fetch function (e.g. a network client) to
// interfaces.IValueSource.
type FuncSource struct {
	SourceName string
	FetchFunc  func(ctx context.Context) (models.MReading, error)
}

func (s FuncSource) Name() string {
	return s.SourceName
}

func (s FuncSource) Fetch(ctx context.Context) (models.MReading, error) {
	return s.FetchFunc(ctx)
}

// SequenceSource replays fixed values in order, then repeats the last one.
// Handy for deterministic sessions and tests.
type SequenceSource struct {
	SourceName string
	Values     []float64

	mu   sync.Mutex
	next int
}

func (s *SequenceSource) Name() string {
	return s.SourceName
}

func (s *SequenceSource) Fetch(ctx context.Context) (models.MReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Values) == 0 {
		return models.MReading{}, nil
	}
	i := s.next
	if i >= len(s.Values) {
		i = len(s.Values) - 1
	} else {
		s.next++
	}
	return models.MReading{Value: s.Values[i]}, nil
}
