// Package service wires storage, deduplication, the view queue and the
// worker pool behind the operations the HTTP API and the Kafka consumer need.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/bulletin/internal/adapters/mq/queue"
	workerpool "github.com/okian/bulletin/internal/adapters/mq/worker"
	"github.com/okian/bulletin/internal/adapters/repository"
	"github.com/okian/bulletin/internal/domain/dedupe"
	"github.com/okian/bulletin/internal/domain/model"
	"github.com/okian/bulletin/internal/domain/ranking"
	"github.com/okian/bulletin/pkg/logger"
	"github.com/okian/bulletin/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000
)

// Service implements the API dependencies for the analytics endpoints.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. Defaults to an empty MemoryStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued view events.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many recent event IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Reads work immediately; view recording needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start creates the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store)
	// Workers must outlive the request that happened to start the service.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the queue, stops the workers and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.logger.Info(ctx, "analytics service stopped")
	return errors.Join(errs...)
}

// TopN returns the limit most-viewed records of c.
func (s *Service) TopN(ctx context.Context, c ranking.Collection, limit int) ([]ranking.Record, error) {
	start := time.Now()
	rows, err := ranking.TopN(ctx, s.store, c, limit)
	metrics.RecordRankingQuery(c.String(), float64(time.Since(start).Milliseconds()), err == nil)
	return rows, err
}

// RecordView deduplicates e and queues it for the workers. A missing event
// ID is generated, so such events are never treated as duplicates.
// duplicate is true when the event was already seen and has been dropped.
func (s *Service) RecordView(ctx context.Context, e model.ViewEvent, source string) (duplicate bool, err error) { //nolint:gocritic // hugeParam: event copied into the queue
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.TS.IsZero() {
		e.TS = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidView, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, e.EventID) {
		metrics.RecordViewDuplicate()
		s.logger.Debug(ctx, "duplicate view event dropped", logger.String("eventID", e.EventID))
		return true, nil
	}

	if err := s.eventQueue.Enqueue(ctx, e); err != nil {
		s.deduper.Unrecord(ctx, e.EventID)
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		case errors.Is(err, eventqueue.ErrClosed):
			return false, fmt.Errorf("%w: %w", ErrNotStarted, err)
		default:
			return false, fmt.Errorf("enqueue view %s: %w", e.EventID, err)
		}
	}

	metrics.RecordViewReceived(source)
	return false, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// QueueStats returns the queued event count and configured worker count
// without touching the store.
func (s *Service) QueueStats() (queueLen, workers int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started {
		queueLen = s.eventQueue.Len()
	}
	return queueLen, s.workerCount
}

// GetStats returns service statistics for monitoring. It counts records in
// every collection, so it is meant for on-demand callers such as /stats.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		stats["queueLength"] = s.eventQueue.Len()
		stats["dedupeEntries"] = s.deduper.Size()
	}

	counts := make(map[string]int, len(ranking.Collections))
	for _, c := range ranking.Collections {
		n, err := s.store.Count(ctx, c)
		if err != nil {
			s.logger.Warn(ctx, "count failed", logger.String("collection", c.String()), logger.Error(err))
			continue
		}
		counts[c.String()] = n
	}
	stats["records"] = counts

	return stats
}
