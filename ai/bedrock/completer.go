package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragline/ai"
)

const (
	anthropicVersion = "bedrock-2023-05-31"

	// defaultMaxTokens is sent when the caller leaves MaxTokens unset;
	// the messages API requires a value.
	defaultMaxTokens = 1024
)

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Completer implements ai.Completer with Anthropic models on Bedrock.
type Completer struct {
	client  runtimeAPI
	modelID string
	logger  *slog.Logger
}

var _ ai.Completer = (*Completer)(nil)

func newCompleter(client runtimeAPI, modelID string) *Completer {
	return &Completer{
		client:  client,
		modelID: modelID,
		logger:  slog.Default().With("component", "bedrock-completer"),
	}
}

// Complete sends the prompt as a single user message.
func (c *Completer) Complete(ctx context.Context, prompt string, opts ai.CompletionOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      opts.Temperature,
		Messages:         []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("unable to serialize claude request: %w", err)
	}

	raw, err := invoke(ctx, c.client, c.modelID, body)
	if err != nil {
		c.logger.Error("completion failed", "err", err)
		return "", ai.Classify("complete", err)
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return "", ai.Classify("complete", fmt.Errorf("failed to unmarshal bedrock response: %w", err))
	}

	var sb strings.Builder
	for _, part := range response.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ai.Classify("complete", ai.ErrEmptyResponse)
	}

	c.logger.Debug("completion finished", "stopReason", response.StopReason)
	return sb.String(), nil
}
