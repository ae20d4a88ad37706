// Package embedding turns segment text into vectors via a local Ollama
// instance. All embedding computation stays outside the segmentation core;
// this client is the pipeline's only bridge to the model server.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"

	"medingest/internal/doctree"
)

// Client wraps the Ollama API for embedding generation.
type Client struct {
	ollama        *api.Client
	model         string
	maxRetries    int
	timeout       time.Duration
	maxConcurrent int

	// Stats tracks call latencies for the /api/stats/embedding endpoint.
	Stats *Stats
}

// NewClient connects to the Ollama host (e.g. http://localhost:11434).
func NewClient(host, model string, maxConcurrent int) (*Client, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Client{
		ollama:        api.NewClient(base, http.DefaultClient),
		model:         model,
		maxRetries:    3,
		timeout:       30 * time.Second,
		maxConcurrent: maxConcurrent,
		Stats:         NewStats(time.Hour),
	}, nil
}

// Model returns the embedding model name.
func (c *Client) Model() string {
	return c.model
}

// Embed generates one embedding, retrying transient failures with a linear
// backoff. Permanent failures, such as an unknown model, are returned
// immediately and unwrapped so callers don't retry them.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		vec, err := c.embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		if !transient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, &RetryableError{Op: "embed", Err: fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)}
}

// transient reports whether a failure is worth retrying: rate limiting,
// server-side errors, and transport errors that never reached the server.
// Any other HTTP status is a request that will keep failing.
func transient(err error) bool {
	var se api.StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.ollama.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  c.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	c.Stats.Record(time.Since(start).Milliseconds())

	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return toFloat32(resp.Embedding), nil
}

// EmbedSegments embeds every segment with bounded concurrency, preserving
// input order. On the first failure the whole batch is reported failed; the
// caller decides whether to retry the document.
func (c *Client) EmbedSegments(ctx context.Context, segments []doctree.Segment) ([][]float32, error) {
	vectors := make([][]float32, len(segments))
	errCh := make(chan error, len(segments))
	sem := make(chan struct{}, c.maxConcurrent)
	var wg sync.WaitGroup

	for i := range segments {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			vec, err := c.Embed(ctx, segments[i].Content)
			if err != nil {
				errCh <- fmt.Errorf("segment %d: %w", segments[i].Index, err)
				return
			}
			vectors[i] = vec
		}(i)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return vectors, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// RetryableError indicates a transient failure worth retrying at the
// document level.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable %s error: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
