package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// NewLimiter returns a token bucket allowing requestsPerSecond calls with a
// burst of one. It returns nil when requestsPerSecond <= 0.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// throttledEmbedder waits on a shared limiter before each call.
type throttledEmbedder struct {
	next    Embedder
	limiter *rate.Limiter
}

var _ Embedder = (*throttledEmbedder)(nil)

// NewThrottledEmbedder wraps next so every call first waits on limiter.
// A nil limiter returns next unchanged.
func NewThrottledEmbedder(next Embedder, limiter *rate.Limiter) Embedder {
	if limiter == nil {
		return next
	}
	return &throttledEmbedder{next: next, limiter: limiter}
}

func (t *throttledEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.EmbedText(ctx, text)
}

func (t *throttledEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.EmbedTexts(ctx, texts)
}

// throttledCompleter waits on a shared limiter before each call.
type throttledCompleter struct {
	next    Completer
	limiter *rate.Limiter
}

var _ Completer = (*throttledCompleter)(nil)

// NewThrottledCompleter wraps next so every call first waits on limiter.
// A nil limiter returns next unchanged.
func NewThrottledCompleter(next Completer, limiter *rate.Limiter) Completer {
	if limiter == nil {
		return next
	}
	return &throttledCompleter{next: next, limiter: limiter}
}

func (t *throttledCompleter) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.next.Complete(ctx, prompt, opts)
}
