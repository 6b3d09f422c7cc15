// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

const (
	// BackendOpenAI serves embeddings and completions from OpenAI-compatible APIs.
	BackendOpenAI = "openai"

	// BackendBedrock serves embeddings and completions from AWS Bedrock.
	BackendBedrock = "bedrock"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the provider implementation: "openai" or "bedrock".
	Backend string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// CompletionHost is the base URL for the text completion service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	CompletionHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small", "amazon.titan-embed-text-v2:0"
	EmbeddingModel string

	// CompletionModel is the model identifier to use for answer generation.
	// Example: "qwen2.5:7b", "gpt-4o-mini", "anthropic.claude-3-haiku-20240307-v1:0"
	CompletionModel string

	// APIKey authenticates against OpenAI-compatible services.
	// Local servers that don't require authentication accept "none".
	APIKey string

	// Region is the AWS region used by the bedrock backend.
	Region string

	// MaxAttempts is the attempt ceiling for rate-limited calls.
	// Default: 3
	MaxAttempts int

	// RetryBaseDelay is the delay before the first retry; it doubles per attempt.
	// Default: 500ms
	RetryBaseDelay time.Duration

	// RequestsPerSecond proactively throttles calls to the backend.
	// 0 disables throttling.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the provider implementation.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithAPIKey sets the API key for OpenAI-compatible services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithRegion sets the AWS region for the bedrock backend.
func WithRegion(region string) ConfigOption {
	return func(c *Config) {
		c.Region = region
	}
}

// WithRetry sets the attempt ceiling and base delay for rate-limited calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = maxAttempts
		c.RetryBaseDelay = baseDelay
	}
}

// WithRequestsPerSecond sets proactive client-side throttling.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and completion use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		Backend:         BackendOpenAI,
		EmbeddingHost:   defaultHost,
		CompletionHost:  defaultHost,
		EmbeddingModel:  "embeddinggemma",
		CompletionModel: "qwen2.5:7b",
		APIKey:          "none",
		Region:          "us-east-1",
		MaxAttempts:     DefaultMaxAttempts,
		RetryBaseDelay:  DefaultRetryBaseDelay,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Backend == "" {
		c.Backend = BackendOpenAI
	}
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.CompletionHost = normalizeHost(c.CompletionHost)
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
		if c.CompletionHost == "" {
			return errors.New("ai config: CompletionHost is required")
		}
	case BackendBedrock:
		if c.Region == "" {
			return errors.New("ai config: Region is required for bedrock")
		}
	default:
		return ErrUnknownBackend
	}

	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.CompletionModel == "" {
		return errors.New("ai config: CompletionModel is required")
	}
	if c.MaxAttempts < 1 {
		return errors.New("ai config: MaxAttempts must be at least 1")
	}
	if c.RetryBaseDelay < 0 {
		return errors.New("ai config: RetryBaseDelay cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	return nil
}
