package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// DefaultMaxRetries is how many times a rate-limited call is retried.
const DefaultMaxRetries = 3

// Retrier runs calls through a Limiter and retries rate-limited ones.
type Retrier struct {
	limiter    *Limiter
	maxRetries uint64
	initial    time.Duration
}

// NewRetrier creates a retrier over limiter.
func NewRetrier(limiter *Limiter, maxRetries int) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrier{
		limiter:    limiter,
		maxRetries: uint64(maxRetries),
		initial:    500 * time.Millisecond,
	}
}

// Do runs op, waiting for the limiter before every attempt. Only
// domain.ErrRateLimited failures are retried.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.initial
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, r.maxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		var rle *domain.RateLimitError
		if errors.As(err, &rle) {
			r.limiter.Pause(rle.RetryAfter)
		}
		if !errors.Is(err, domain.ErrRateLimited) {
			return backoff.Permanent(err)
		}
		logger.Debug("Rate limited (attempt %d): %v", attempt, err)
		return err
	}, policy)
}

// Ensure LLM implements the interface.
var _ driven.LLMService = (*LLM)(nil)

// LLM wraps an LLMService with rate limiting.
type LLM struct {
	driven.LLMService
	retrier *Retrier
}

// WrapLLM returns svc limited by retrier.
func WrapLLM(svc driven.LLMService, retrier *Retrier) *LLM {
	return &LLM{LLMService: svc, retrier: retrier}
}

// Generate produces a completion, waiting for the rate limit.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.LLMService.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder wraps an EmbeddingService with rate limiting.
type Embedder struct {
	driven.EmbeddingService
	retrier *Retrier
}

// WrapEmbedder returns svc limited by retrier.
func WrapEmbedder(svc driven.EmbeddingService, retrier *Retrier) *Embedder {
	return &Embedder{EmbeddingService: svc, retrier: retrier}
}

// Embed generates one embedding, waiting for the rate limit.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.EmbeddingService.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch generates embeddings for texts, waiting for the rate limit.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.EmbeddingService.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}
