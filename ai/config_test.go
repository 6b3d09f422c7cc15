package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:7b", cfg.CompletionModel)
	assert.Equal(t, "none", cfg.APIKey)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultRetryBaseDelay, cfg.RetryBaseDelay)
	assert.Zero(t, cfg.RequestsPerSecond)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.CompletionHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithCompletionHost("http://generate:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://generate:9090/v1", cfg.CompletionHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithBackend(BackendBedrock),
			WithRegion("eu-west-1"),
			WithEmbeddingModel("amazon.titan-embed-text-v2:0"),
			WithCompletionModel("anthropic.claude-3-haiku-20240307-v1:0"),
			WithAPIKey("secret"),
			WithRetry(5, time.Second),
			WithRequestsPerSecond(2.5),
		)

		assert.Equal(t, BackendBedrock, cfg.Backend)
		assert.Equal(t, "eu-west-1", cfg.Region)
		assert.Equal(t, "amazon.titan-embed-text-v2:0", cfg.EmbeddingModel)
		assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", cfg.CompletionModel)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, 5, cfg.MaxAttempts)
		assert.Equal(t, time.Second, cfg.RetryBaseDelay)
		assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name               string
		embeddingHost      string
		completionHost     string
		expectedEmbedding  string
		expectedCompletion string
	}{
		{
			name:               "already has /v1",
			embeddingHost:      "http://localhost:11434/v1",
			completionHost:     "http://localhost:11434/v1",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "http://localhost:11434/v1",
		},
		{
			name:               "missing /v1",
			embeddingHost:      "http://localhost:11434",
			completionHost:     "http://localhost:11434",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "http://localhost:11434/v1",
		},
		{
			name:               "has trailing slash",
			embeddingHost:      "http://localhost:11434/",
			completionHost:     "http://localhost:11434/",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "http://localhost:11434/v1",
		},
		{
			name:               "empty hosts",
			embeddingHost:      "",
			completionHost:     "",
			expectedEmbedding:  "",
			expectedCompletion: "",
		},
		{
			name:               "different formats",
			embeddingHost:      "http://embed:8080",
			completionHost:     "http://generate:9090/v1",
			expectedEmbedding:  "http://embed:8080/v1",
			expectedCompletion: "http://generate:9090/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost:  tt.embeddingHost,
				CompletionHost: tt.completionHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedCompletion, cfg.CompletionHost)
			assert.Equal(t, BackendOpenAI, cfg.Backend)
			assert.Equal(t, "none", cfg.APIKey)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config normalizes hosts", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	})

	t.Run("bedrock does not need hosts", func(t *testing.T) {
		cfg := NewConfig(WithBackend(BackendBedrock), WithHost(""))

		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name    string
		opts    []ConfigOption
		wantMsg string
	}{
		{name: "missing embedding host", opts: []ConfigOption{WithEmbeddingHost("")}, wantMsg: "EmbeddingHost"},
		{name: "missing completion host", opts: []ConfigOption{WithCompletionHost("")}, wantMsg: "CompletionHost"},
		{name: "missing embedding model", opts: []ConfigOption{WithEmbeddingModel("")}, wantMsg: "EmbeddingModel"},
		{name: "missing completion model", opts: []ConfigOption{WithCompletionModel("")}, wantMsg: "CompletionModel"},
		{name: "zero attempts", opts: []ConfigOption{WithRetry(0, time.Second)}, wantMsg: "MaxAttempts"},
		{name: "negative delay", opts: []ConfigOption{WithRetry(3, -time.Second)}, wantMsg: "RetryBaseDelay"},
		{name: "negative rps", opts: []ConfigOption{WithRequestsPerSecond(-1)}, wantMsg: "RequestsPerSecond"},
		{name: "bedrock without region", opts: []ConfigOption{WithBackend(BackendBedrock), WithRegion("")}, wantMsg: "Region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		err := NewConfig(WithBackend("carrier-pigeon")).Validate()
		assert.ErrorIs(t, err, ErrUnknownBackend)
	})
}
