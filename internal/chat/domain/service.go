package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrModelNotAvailable  = errors.New("model_not_available")
	ErrEmptyMessages      = errors.New("messages must not be empty")
	ErrLimiterUnavailable = errors.New("rate limiter unavailable")
)

// RateLimitError is returned when the fixed-window limiter denies a
// request. RetryAfter feeds the Retry-After response header.
type RateLimitError struct {
	Limit      int
	RetryAfter time.Duration
	ResetAt    time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d exceeded, retry in %s", e.Limit, e.RetryAfter)
}

// Completer streams one completion from the upstream model API. onChunk is
// invoked for every delta in order; the returned Usage holds the real token
// counters from the terminal chunk.
type Completer interface {
	StreamCompletion(ctx context.Context, model string, messages []Message, onChunk func(StreamChunk) error) (*Usage, error)
}

// Service runs the gated chat pipeline: rate limit, model access, balance
// pre-flight, streaming, then best-effort settlement.
type Service interface {
	Stream(ctx context.Context, req CompletionRequest, onChunk func(StreamChunk) error) error
	ListModels(ctx context.Context) ([]ModelTier, error)
}
