package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// ErrQueueStopped is returned by Submit once the queue is stopped.
var ErrQueueStopped = errors.New("ingest queue stopped")

// DefaultIngestWorkers is the number of documents analysed concurrently.
const DefaultIngestWorkers = 2

// IngestResult is delivered once per submitted document.
type IngestResult struct {
	Filename string
	Analysis *domain.DocumentAnalysis
	Err      error
}

// IngestQueue analyses submitted documents on a fixed pool of workers.
// Each document is owned by exactly one worker for its whole analysis.
type IngestQueue struct {
	analysis driving.AnalysisService
	workers  int
	onResult func(IngestResult)

	mu      sync.RWMutex
	running bool
	jobs    chan *domain.RawDocument
	wg      sync.WaitGroup
}

// NewIngestQueue creates a queue. workers below 1 uses DefaultIngestWorkers.
// onResult may be nil; it is called from worker goroutines.
func NewIngestQueue(
	analysis driving.AnalysisService,
	workers int,
	onResult func(IngestResult),
) *IngestQueue {
	if workers < 1 {
		workers = DefaultIngestWorkers
	}
	if onResult == nil {
		onResult = func(IngestResult) {}
	}
	return &IngestQueue{
		analysis: analysis,
		workers:  workers,
		onResult: onResult,
	}
}

// Start launches the workers. They run until Stop is called or ctx ends.
func (q *IngestQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.jobs = make(chan *domain.RawDocument, q.workers*4)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, q.jobs)
	}
	logger.Debug("Ingest queue started with %d workers", q.workers)
}

// Submit enqueues a document. It blocks while the queue is full, and Stop
// waits for blocked submitters.
func (q *IngestQueue) Submit(ctx context.Context, raw *domain.RawDocument) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.running {
		return ErrQueueStopped
	}

	select {
	case q.jobs <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for in-flight analyses to finish.
func (q *IngestQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	logger.Debug("Ingest queue stopped")
}

// work drains jobs until the channel is closed or ctx ends.
func (q *IngestQueue) work(ctx context.Context, jobs <-chan *domain.RawDocument) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-jobs:
			if !ok {
				return
			}
			analysis, err := q.analysis.Analyze(ctx, raw)
			q.onResult(IngestResult{Filename: raw.Filename, Analysis: analysis, Err: err})
		}
	}
}
