package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragline/ai"
)

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Embedder implements ai.Embedder with Amazon Titan text embeddings.
type Embedder struct {
	client  runtimeAPI
	modelID string
	logger  *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

func newEmbedder(client runtimeAPI, modelID string) *Embedder {
	return &Embedder{
		client:  client,
		modelID: modelID,
		logger:  slog.Default().With("component", "bedrock-embedder"),
	}
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{InputText: text})
	if err != nil {
		return nil, fmt.Errorf("unable to serialize titan request: %w", err)
	}

	raw, err := invoke(ctx, e.client, e.modelID, body)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, ai.Classify("embed", err)
	}

	var response titanResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, ai.Classify("embed", fmt.Errorf("failed to unmarshal titan response: %w", err))
	}
	if len(response.Embedding) == 0 {
		return nil, ai.Classify("embed", ai.ErrEmptyResponse)
	}

	return response.Embedding, nil
}

// EmbedTexts embeds each text in turn. Titan accepts one input per request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}
