package mock

import (
	"context"
	"sync"

	"github.com/poiesic/ragline/ai"
)

// DefaultAnswer is returned by MockCompleter when no CompleteFunc is set.
const DefaultAnswer = "According to the documentation [Source 1], the token is refreshed automatically."

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns DefaultAnswer.
	CompleteFunc func(ctx context.Context, prompt string, opts ai.CompletionOptions) (string, error)

	mu         sync.Mutex
	callCount  int
	lastPrompt string
	lastOpts   ai.CompletionOptions
}

var _ ai.Completer = (*MockCompleter)(nil)

// NewMockCompleter creates a mock completer with default behavior.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records the prompt and returns the injected or default answer.
func (m *MockCompleter) Complete(ctx context.Context, prompt string, opts ai.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastPrompt = prompt
	m.lastOpts = opts
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, opts)
	}
	return DefaultAnswer, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompt returns the prompt of the most recent call.
func (m *MockCompleter) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastOptions returns the options of the most recent call.
func (m *MockCompleter) LastOptions() ai.CompletionOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpts
}

// Reset clears recorded calls and injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastPrompt = ""
	m.lastOpts = ai.CompletionOptions{}
	m.CompleteFunc = nil
}
