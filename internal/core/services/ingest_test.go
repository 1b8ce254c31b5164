package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func TestIngestQueue_AnalysesEverySubmission(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	results := make(map[string]IngestResult)
	queue := NewIngestQueue(f.orch, 3, func(r IngestResult) {
		mu.Lock()
		defer mu.Unlock()
		results[r.Filename] = r
	})

	ctx := context.Background()
	queue.Start(ctx)
	for i := 0; i < 5; i++ {
		raw := paper()
		raw.Filename = fmt.Sprintf("paper-%d.txt", i)
		require.NoError(t, queue.Submit(ctx, raw))
	}
	queue.Stop()

	require.Len(t, results, 5)
	for name, r := range results {
		require.NoError(t, r.Err, name)
		assert.Equal(t, domain.StatusCompleted, r.Analysis.Status, name)
	}
}

func TestIngestQueue_SubmitAfterStop(t *testing.T) {
	queue := NewIngestQueue(newFixture(t).orch, 0, nil)

	assert.ErrorIs(t, queue.Submit(context.Background(), paper()), ErrQueueStopped)

	queue.Start(context.Background())
	queue.Stop()
	queue.Stop()

	assert.ErrorIs(t, queue.Submit(context.Background(), paper()), ErrQueueStopped)
}

func TestIngestQueue_ReportsAnalysisErrors(t *testing.T) {
	f := newFixture(t)
	done := make(chan IngestResult, 1)
	queue := NewIngestQueue(f.orch, 1, func(r IngestResult) { done <- r })

	queue.Start(context.Background())
	require.NoError(t, queue.Submit(context.Background(), &domain.RawDocument{Filename: "empty.txt"}))
	queue.Stop()

	r := <-done
	assert.Equal(t, "empty.txt", r.Filename)
	assert.ErrorIs(t, r.Err, domain.ErrInvalidInput)
	assert.Nil(t, r.Analysis)
}
