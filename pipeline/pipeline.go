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


package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/ragline/ai"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/scoring"
)

const (
	generationFailedAnswer = "I'm sorry, I couldn't generate an answer to your question right now. " +
		"Please try again later."
	rateLimitedAnswer = "The answer service is receiving too many requests right now. " +
		"Please wait a moment and ask again."
)

// Retriever fetches ranked context for a query. It must not fail.
type Retriever interface {
	Retrieve(ctx context.Context, query, scope string, topK int, threshold float64) core.RetrievalResult
}

// PromptBuilder renders the completion prompt. history arrives ordered
// oldest first; the builder owns the history window.
type PromptBuilder interface {
	Build(query string, chunks core.RetrievalResult, history []core.ConversationTurn, tenantPreamble string, maxTokens int) string
}

// Scorer rates a generated answer.
type Scorer interface {
	Explain(answer string) scoring.Breakdown
}

// Pipeline orchestrates a single question from retrieval to scored answer.
// It holds no per-query state and is safe for concurrent use.
type Pipeline struct {
	retriever Retriever
	assembler PromptBuilder
	completer ai.Completer
	scorer    Scorer
	config    Config
	monitor   Monitor
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithConfig replaces all settings at once.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		p.config = cfg
		return nil
	}
}

// WithTopK sets how many chunks are requested from the retriever.
func WithTopK(k int) Option {
	return func(p *Pipeline) error {
		p.config.TopK = k
		return nil
	}
}

// WithThreshold sets the minimum similarity for retrieved chunks.
func WithThreshold(threshold float64) Option {
	return func(p *Pipeline) error {
		p.config.Threshold = threshold
		return nil
	}
}

// WithMaxPromptTokens sets the prompt token budget.
func WithMaxPromptTokens(n int) Option {
	return func(p *Pipeline) error {
		p.config.MaxPromptTokens = n
		return nil
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) Option {
	return func(p *Pipeline) error {
		p.config.Temperature = t
		return nil
	}
}

// WithMaxAnswerTokens caps the generated answer length. Zero leaves it to the backend.
func WithMaxAnswerTokens(n int) Option {
	return func(p *Pipeline) error {
		p.config.MaxAnswerTokens = n
		return nil
	}
}

// WithMonitor installs a default Monitor used when none is passed per call.
func WithMonitor(m Monitor) Option {
	return func(p *Pipeline) error {
		if m == nil {
			m = &noopMonitor{}
		}
		p.monitor = m
		return nil
	}
}

// NewPipeline creates a Pipeline from its collaborators.
func NewPipeline(retriever Retriever, assembler PromptBuilder, completer ai.Completer, scorer Scorer, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if assembler == nil {
		return nil, ErrAssemblerRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	p := &Pipeline{
		retriever: retriever,
		assembler: assembler,
		completer: completer,
		scorer:    scorer,
		config:    DefaultConfig(),
		monitor:   &noopMonitor{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// Config returns the settings in use.
func (p *Pipeline) Config() Config {
	return p.config
}

// ProcessQuery answers input.Query. The returned error is non-nil only for
// invalid input; operational failures are reported through output.Err.
func (p *Pipeline) ProcessQuery(ctx context.Context, input core.PipelineInput) (core.PipelineOutput, error) {
	return p.ProcessQueryWithMonitor(ctx, input, nil)
}

// ProcessQueryWithMonitor is ProcessQuery with a per-call monitor.
// A nil monitor falls back to the pipeline's default.
func (p *Pipeline) ProcessQueryWithMonitor(ctx context.Context, input core.PipelineInput, monitor Monitor) (core.PipelineOutput, error) {
	if err := core.ValidateQuery(input.Query); err != nil {
		return core.PipelineOutput{}, err
	}
	if monitor == nil {
		monitor = p.monitor
	}

	r := &run{
		id:      uuid.NewString(),
		monitor: monitor,
		stage:   StageStart,
	}
	logger := p.logger.With("query_id", r.id)
	started := time.Now()
	monitor.Start(r.id, input)
	monitor.EnterStage(StageStart)

	r.advance()
	retrieved := p.retriever.Retrieve(ctx, input.Query, input.Scope, p.config.TopK, p.config.Threshold)
	monitor.AfterRetrieve(retrieved)

	r.advance()
	history := orderedHistory(input.History, logger)
	prompt := p.assembler.Build(input.Query, retrieved, history, input.TenantPreamble, p.config.MaxPromptTokens)
	monitor.AfterAssemble(prompt)

	r.advance()
	answer, err := p.completer.Complete(ctx, prompt, ai.CompletionOptions{
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxAnswerTokens,
	})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = ai.ErrEmptyResponse
	}
	monitor.AfterGenerate(answer, err)
	if err != nil {
		r.fail()
		output := failureOutput(err)
		logger.Warn("generation failed",
			"err", err,
			"rate_limited", ai.IsRateLimited(err),
			"duration", time.Since(started))
		monitor.Finish(output)
		return output, nil
	}

	r.advance()
	breakdown := p.scorer.Explain(answer)
	monitor.AfterScore(breakdown)

	output := core.PipelineOutput{
		Answer:     answer,
		Sources:    BuildSources(retrieved),
		Confidence: breakdown.Score,
	}
	r.advance()
	logger.Info("query answered",
		"sources", len(output.Sources),
		"confidence", output.Confidence,
		"duration", time.Since(started))
	logger.Debug("confidence breakdown",
		"citation", breakdown.Citation,
		"code_block", breakdown.CodeBlock,
		"length_bonus", breakdown.LengthBonus,
		"structure", breakdown.Structure,
		"negative_capped", breakdown.NegativeCapped)
	monitor.Finish(output)
	return output, nil
}

// run tracks the stage of one query.
type run struct {
	id      string
	monitor Monitor
	stage   Stage
}

func (r *run) advance() {
	r.stage = r.stage.next()
	r.monitor.EnterStage(r.stage)
}

func (r *run) fail() {
	r.stage = StageFailed
	r.monitor.EnterStage(r.stage)
}

func failureOutput(err error) core.PipelineOutput {
	answer := generationFailedAnswer
	if ai.IsRateLimited(err) {
		answer = rateLimitedAnswer
	}
	return core.PipelineOutput{
		Answer:     answer,
		Sources:    []core.Source{},
		Confidence: 0,
		Err:        err,
	}
}

// orderedHistory drops invalid turns and orders the rest by time. The
// assembler decides how many of the most recent turns reach the prompt.
func orderedHistory(history []core.ConversationTurn, logger *slog.Logger) []core.ConversationTurn {
	if len(history) == 0 {
		return nil
	}
	turns := make([]core.ConversationTurn, 0, len(history))
	for i := range history {
		if err := core.ValidateTurn(&history[i]); err != nil {
			logger.Debug("skipping history turn", "index", i, "err", err)
			continue
		}
		turns = append(turns, history[i])
	}
	slices.SortStableFunc(turns, func(a, b core.ConversationTurn) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return turns
}
