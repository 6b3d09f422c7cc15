// Package config loads the ragline application configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/ragline/ai"
	"github.com/poiesic/ragline/cache"
	"github.com/poiesic/ragline/chunking"
	"github.com/poiesic/ragline/indexing"
	"github.com/poiesic/ragline/pipeline"
	"github.com/poiesic/ragline/prompt"
	"github.com/poiesic/ragline/scoring"
	"gopkg.in/yaml.v3"
)

const (
	// StorageBadger selects the embedded BadgerDB index.
	StorageBadger = "badger"
	// StoragePostgres selects PostgreSQL with pgvector.
	StoragePostgres = "postgres"

	// EstimatorWords selects the word-count token estimate.
	EstimatorWords = "words"
	// EstimatorTiktoken selects a BPE tokenizer for token counts.
	EstimatorTiktoken = "tiktoken"

	// FileName is the config file looked up in the working directory.
	FileName = "ragline.yaml"
)

// ErrInvalidConfig indicates a config value is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// AIConfig selects and configures the model backend.
type AIConfig struct {
	Backend         string `yaml:"backend"`
	EmbeddingHost   string `yaml:"embedding_host"`
	CompletionHost  string `yaml:"completion_host"`
	EmbeddingModel  string `yaml:"embedding_model"`
	CompletionModel string `yaml:"completion_model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv         string        `yaml:"api_key_env"`
	Region            string        `yaml:"region"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Provider converts the section into an ai.Config, reading the API key from
// the environment.
func (c AIConfig) Provider() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithBackend(c.Backend),
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithCompletionHost(c.CompletionHost),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithCompletionModel(c.CompletionModel),
		ai.WithRegion(c.Region),
		ai.WithRetry(c.MaxAttempts, c.RetryBaseDelay),
		ai.WithRequestsPerSecond(c.RequestsPerSecond),
	}
	if c.APIKeyEnv != "" {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			opts = append(opts, ai.WithAPIKey(key))
		}
	}
	return ai.NewConfig(opts...)
}

// ChunkingConfig controls chunk sizing and token estimation.
type ChunkingConfig struct {
	chunking.Config `yaml:",inline"`
	Estimator       string `yaml:"estimator"`
	// Encoding is the tiktoken encoding name.
	Encoding string `yaml:"encoding"`
}

// NewEstimator returns the configured token estimator.
func (c ChunkingConfig) NewEstimator() (chunking.TokenEstimator, error) {
	if c.Estimator == EstimatorTiktoken {
		return chunking.NewTiktokenEstimator(c.Encoding)
	}
	return chunking.WordEstimator{}, nil
}

// CacheConfig sizes the query embedding cache.
type CacheConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
	// Redis enables a shared second tier when set.
	Redis *cache.RedisConfig `yaml:"redis,omitempty"`
}

// StorageConfig selects the vector index.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Path is the BadgerDB directory. Empty runs in memory.
	Path string `yaml:"path"`
	// DSNEnv names the environment variable holding the PostgreSQL DSN.
	DSNEnv string `yaml:"dsn_env"`
	// Dimensions pins the pgvector column width. Zero leaves it unconstrained.
	Dimensions int `yaml:"dimensions"`
}

// DSN returns the PostgreSQL connection string from the environment.
func (c StorageConfig) DSN() string {
	return os.Getenv(c.DSNEnv)
}

// PromptConfig controls prompt assembly.
type PromptConfig struct {
	// HistoryTurns is how many of the most recent turns reach the prompt.
	HistoryTurns int `yaml:"history_turns"`
	MaxTurnChars int `yaml:"max_turn_chars"`
}

// Options returns the assembler options for this section.
func (c PromptConfig) Options() []prompt.Option {
	return []prompt.Option{
		prompt.WithMaxHistoryTurns(c.HistoryTurns),
		prompt.WithMaxTurnChars(c.MaxTurnChars),
	}
}

// IndexingConfig controls embedding during indexing.
type IndexingConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Concurrency int `yaml:"concurrency"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	LogLevel string          `yaml:"log_level"`
	AI       AIConfig        `yaml:"ai"`
	Chunking ChunkingConfig  `yaml:"chunking"`
	Pipeline pipeline.Config `yaml:"pipeline"`
	Prompt   PromptConfig    `yaml:"prompt"`
	Scoring  scoring.Weights `yaml:"scoring"`
	Cache    CacheConfig     `yaml:"cache"`
	Storage  StorageConfig   `yaml:"storage"`
	Indexing IndexingConfig  `yaml:"indexing"`
}

// Default returns the stock configuration.
func Default() *AppConfig {
	provider := ai.DefaultConfig()
	return &AppConfig{
		LogLevel: "info",
		AI: AIConfig{
			Backend:         provider.Backend,
			EmbeddingHost:   provider.EmbeddingHost,
			CompletionHost:  provider.CompletionHost,
			EmbeddingModel:  provider.EmbeddingModel,
			CompletionModel: provider.CompletionModel,
			APIKeyEnv:       "OPENAI_API_KEY",
			Region:          provider.Region,
			MaxAttempts:     provider.MaxAttempts,
			RetryBaseDelay:  provider.RetryBaseDelay,
		},
		Chunking: ChunkingConfig{
			Config:    chunking.DefaultConfig(),
			Estimator: EstimatorWords,
			Encoding:  chunking.DefaultEncoding,
		},
		Pipeline: pipeline.DefaultConfig(),
		Scoring:  scoring.DefaultWeights(),
		Prompt: PromptConfig{
			HistoryTurns: prompt.DefaultMaxHistoryTurns,
			MaxTurnChars: prompt.DefaultMaxTurnChars,
		},
		Cache: CacheConfig{
			Capacity: cache.DefaultCapacity,
		},
		Storage: StorageConfig{
			Backend: StorageBadger,
			Path:    "ragline-data",
			DSNEnv:  "RAGLINE_PG_DSN",
		},
		Indexing: IndexingConfig{
			BatchSize:   indexing.DefaultBatchSize,
			Concurrency: 1,
		},
	}
}

// Validate checks the sections that are not validated by the components
// they configure.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case StorageBadger, StoragePostgres:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	switch c.Chunking.Estimator {
	case "", EstimatorWords, EstimatorTiktoken:
	default:
		return fmt.Errorf("%w: unknown estimator %q", ErrInvalidConfig, c.Chunking.Estimator)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("%w: cache capacity must be positive, got %d", ErrInvalidConfig, c.Cache.Capacity)
	}
	if c.Indexing.BatchSize < 1 || c.Indexing.Concurrency < 1 {
		return fmt.Errorf("%w: indexing batch_size and concurrency must be positive", ErrInvalidConfig)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if _, err := prompt.NewAssembler(c.Prompt.Options()...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	return c.AI.Provider().Validate()
}

// Load reads a config from path. Missing keys keep their defaults. A missing
// file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./ragline.yaml first, then ~/.config/ragline/config.yaml.
// If neither exists it writes the defaults to the latter and returns them.
func LoadDefault() (*AppConfig, string, error) {
	if _, err := os.Stat(FileName); err == nil {
		cfg, err := Load(FileName)
		return cfg, FileName, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragline", "config.yaml"), nil
}
