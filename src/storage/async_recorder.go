package storage

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"chart-feed/src/helpers"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/models"
)

var ErrRecorderClosed = errors.New("recorder closed")

const (
	DefaultQueueSize  = 1024
	DefaultBatchSize  = 256
	DefaultFlushEvery = time.Second
)

type pendingBatch struct {
	session string
	samples []models.MSample
}

// -----------------------------------------------------------------------------
// AsyncRecorder queues samples for a background writer so SaveSamples never
// blocks a session tick. When the queue is full the batch is dropped and counted.
// -----------------------------------------------------------------------------

type AsyncRecorder struct {
	Inner      interfaces.IRecorder
	Logger     *logger.Logger
	BatchSize  int
	FlushEvery time.Duration

	queue   chan pendingBatch
	mu      sync.RWMutex
	closing bool
	started bool
	wg      sync.WaitGroup
	dropped atomic.Int64
	written atomic.Int64
}

// -----------------------------------------------------------------------------

func NewAsyncRecorder(inner interfaces.IRecorder, queueSize int, log *logger.Logger) *AsyncRecorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &AsyncRecorder{
		Inner:      inner,
		Logger:     log,
		BatchSize:  DefaultBatchSize,
		FlushEvery: DefaultFlushEvery,
		queue:      make(chan pendingBatch, queueSize),
	}
}

// -----------------------------------------------------------------------------

// Initialize sets up the wrapped recorder and starts the writer.
func (r *AsyncRecorder) Initialize() error {
	if err := r.Inner.Initialize(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		r.started = true
		r.wg.Add(1)
		go r.writer()
	}
	return nil
}

// -----------------------------------------------------------------------------

// SaveSamples enqueues a copy of samples.
func (r *AsyncRecorder) SaveSamples(session string, samples []models.MSample) error {
	if len(samples) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closing {
		return ErrRecorderClosed
	}

	b := pendingBatch{session: session, samples: append([]models.MSample(nil), samples...)}
	select {
	case r.queue <- b:
	default:
		if n := r.dropped.Add(int64(len(samples))); n == 1 || n%100 == 0 {
			r.Logger.Warning("Recorder queue full, %d samples dropped so far", n)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *AsyncRecorder) CleanupOldData() error {
	return r.Inner.CleanupOldData()
}

// -----------------------------------------------------------------------------

// Close drains the queue, then closes the wrapped recorder.
func (r *AsyncRecorder) Close() error {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return nil
	}
	r.closing = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	r.Logger.Info("Recorder closed: %d samples written, %d dropped", r.written.Load(), r.dropped.Load())
	return r.Inner.Close()
}

// -----------------------------------------------------------------------------

func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *AsyncRecorder) Written() int64 {
	return r.written.Load()
}

// -----------------------------------------------------------------------------

func (r *AsyncRecorder) writer() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.FlushEvery)
	defer ticker.Stop()

	pending := make(map[string][]models.MSample)
	count := 0

	flush := func() {
		if count == 0 {
			return
		}
		sessions := make([]string, 0, len(pending))
		for name := range pending {
			sessions = append(sessions, name)
		}
		sort.Strings(sessions)

		for _, name := range sessions {
			batch := pending[name]
			if err := r.Inner.SaveSamples(name, batch); err != nil {
				r.Logger.Error("%v", helpers.NewStorageError("save "+name, err))
			} else {
				r.written.Add(int64(len(batch)))
			}
			delete(pending, name)
		}
		count = 0
	}

	for {
		select {
		case b, ok := <-r.queue:
			if !ok {
				flush()
				return
			}
			pending[b.session] = append(pending[b.session], b.samples...)
			count += len(b.samples)
			if count >= r.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
