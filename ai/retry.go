package ai

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultMaxAttempts is the default attempt ceiling for rate-limited calls.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the delay before the first retry.
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

// RetryWithBackoff retries an operation with exponential backoff while it
// fails with a rate-limit error. Any other error is returned immediately.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !IsRateLimited(lastErr) {
			return lastErr
		}

		slog.Debug("rate limited, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		// baseDelay * 2^(attempt-1)
		delay := baseDelay << (attempt - 1)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// retryingEmbedder retries rate-limited embedding calls.
type retryingEmbedder struct {
	next        Embedder
	maxAttempts int
	baseDelay   time.Duration
}

var _ Embedder = (*retryingEmbedder)(nil)

// NewRetryingEmbedder wraps next so rate-limited calls are retried with
// exponential backoff.
func NewRetryingEmbedder(next Embedder, maxAttempts int, baseDelay time.Duration) Embedder {
	return &retryingEmbedder{next: next, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (r *retryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = r.next.EmbedText(ctx, text)
		return err
	}, r.maxAttempts, r.baseDelay)
	return vector, err
}

func (r *retryingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = r.next.EmbedTexts(ctx, texts)
		return err
	}, r.maxAttempts, r.baseDelay)
	return vectors, err
}

// retryingCompleter retries rate-limited completion calls.
type retryingCompleter struct {
	next        Completer
	maxAttempts int
	baseDelay   time.Duration
}

var _ Completer = (*retryingCompleter)(nil)

// NewRetryingCompleter wraps next so rate-limited calls are retried with
// exponential backoff.
func NewRetryingCompleter(next Completer, maxAttempts int, baseDelay time.Duration) Completer {
	return &retryingCompleter{next: next, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (r *retryingCompleter) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	var answer string
	err := RetryWithBackoff(ctx, func() error {
		var err error
		answer, err = r.next.Complete(ctx, prompt, opts)
		return err
	}, r.maxAttempts, r.baseDelay)
	return answer, err
}
