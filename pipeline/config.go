package pipeline

import (
	"fmt"

	"github.com/poiesic/ragline/retrieval"
)

const (
	// DefaultMaxPromptTokens is the token budget handed to the prompt assembler.
	DefaultMaxPromptTokens = 3000
	// DefaultTemperature is the sampling temperature for generation.
	DefaultTemperature = 0.3
	// DefaultMaxAnswerTokens caps the generated answer length.
	DefaultMaxAnswerTokens = 1024
)

// Config holds per-query pipeline settings.
type Config struct {
	TopK            int     `yaml:"top_k"`
	Threshold       float64 `yaml:"threshold"`
	MaxPromptTokens int     `yaml:"max_prompt_tokens"`
	Temperature     float64 `yaml:"temperature"`
	MaxAnswerTokens int     `yaml:"max_answer_tokens"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		TopK:            retrieval.DefaultTopK,
		Threshold:       retrieval.DefaultThreshold,
		MaxPromptTokens: DefaultMaxPromptTokens,
		Temperature:     DefaultTemperature,
		MaxAnswerTokens: DefaultMaxAnswerTokens,
	}
}

// Validate checks every field is within range.
func (c Config) Validate() error {
	switch {
	case c.TopK <= 0:
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, c.TopK)
	case c.Threshold < 0 || c.Threshold > 1:
		return fmt.Errorf("%w: threshold must be within [0, 1], got %v", ErrInvalidConfig, c.Threshold)
	case c.MaxPromptTokens <= 0:
		return fmt.Errorf("%w: max_prompt_tokens must be positive, got %d", ErrInvalidConfig, c.MaxPromptTokens)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("%w: temperature must be within [0, 2], got %v", ErrInvalidConfig, c.Temperature)
	case c.MaxAnswerTokens < 0:
		return fmt.Errorf("%w: max_answer_tokens must be non-negative, got %d", ErrInvalidConfig, c.MaxAnswerTokens)
	}
	return nil
}
