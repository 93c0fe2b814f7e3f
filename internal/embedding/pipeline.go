package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/sagitta-go/core/internal/apperr"
)

// PipelineConfig tunes the batching/backpressure/retry behavior of
// Pipeline. Zero values are replaced with sane defaults by NewPipeline.
type PipelineConfig struct {
	// BatchSize is the maximum number of texts sent to the underlying
	// Embedder in one EmbedBatch call.
	BatchSize int
	// MaxInFlight caps the number of batches concurrently in flight
	// against the underlying embedder.
	MaxInFlight int
	// MaxRetries is the number of retry attempts for a retriable
	// embedding failure before giving up on a batch.
	MaxRetries int
}

const (
	defaultBatchSize   = 32
	defaultMaxInFlight = 4
	defaultMaxRetries  = 3
)

// Pipeline wraps an Embedder with fixed-size batching, a concurrency cap
// on in-flight batches, and exponential-backoff retry on retriable
// failures. Results are reassembled in input order regardless of which
// batch finished first.
type Pipeline struct {
	inner  Embedder
	cfg    PipelineConfig
	tokens chan struct{}
}

// NewPipeline wraps inner with batching/backpressure/retry. A zero
// PipelineConfig field falls back to the package defaults.
func NewPipeline(inner Embedder, cfg PipelineConfig) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = defaultMaxInFlight
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &Pipeline{
		inner:  inner,
		cfg:    cfg,
		tokens: make(chan struct{}, cfg.MaxInFlight),
	}
}

// Embed delegates directly to the underlying embedder; single-text
// requests bypass batching.
func (p *Pipeline) Embed(ctx context.Context, text string) (*Embedding, error) {
	return p.inner.Embed(ctx, text)
}

// Dimensions delegates to the underlying embedder.
func (p *Pipeline) Dimensions() int {
	return p.inner.Dimensions()
}

// Model delegates to the underlying embedder.
func (p *Pipeline) Model() string {
	return p.inner.Model()
}

// EmbedBatch splits texts into fixed-size batches, runs up to
// MaxInFlight of them concurrently against the underlying embedder
// (each retried with exponential backoff on a retriable failure), and
// reassembles the results in the original input order.
func (p *Pipeline) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type batch struct {
		start int
		texts []string
	}
	var batches []batch
	for start := 0; start < len(texts); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start: start, texts: texts[start:end]})
	}

	results := make([]*Embedding, len(texts))
	errs := make([]error, len(batches))

	var wg sync.WaitGroup
	for i, b := range batches {
		select {
		case p.tokens <- struct{}{}:
		case <-ctx.Done():
			return nil, apperr.Cancelled()
		}
		wg.Add(1)
		go func(i int, b batch) {
			defer wg.Done()
			defer func() { <-p.tokens }()
			embeddings, err := p.embedBatchWithRetry(ctx, b.texts)
			if err != nil {
				errs[i] = err
				return
			}
			for j, e := range embeddings {
				results[b.start+j] = e
			}
		}(i, b)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// embedBatchWithRetry retries a single batch call with the exponential
// backoff idiom used elsewhere for recoverable step failures, honoring
// ctx cancellation between attempts.
func (p *Pipeline) embedBatchWithRetry(ctx context.Context, texts []string) ([]*Embedding, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		embeddings, err := p.inner.EmbedBatch(ctx, texts)
		if err == nil {
			return embeddings, nil
		}
		lastErr = err

		if !apperr.IsRetriable(err) || attempt >= p.cfg.MaxRetries {
			return nil, err
		}

		backoff := time.Duration(10*attempt*attempt) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, apperr.Cancelled()
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}
