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


package bedrock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragline/ai"
)

// Provider implements ai.Provider on top of a single Bedrock runtime client.
type Provider struct {
	embedder  *Embedder
	completer *Completer
	logger    *slog.Logger
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates a Bedrock-backed provider.
// The config must select ai.BackendBedrock.
func NewProvider(ctx context.Context, config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendBedrock {
		return nil, fmt.Errorf("%w: bedrock provider given backend %q", ai.ErrUnknownBackend, config.Backend)
	}

	client, err := newRuntimeClient(ctx, config.Region)
	if err != nil {
		return nil, err
	}
	return newProvider(client, config), nil
}

func newProvider(client runtimeAPI, config *ai.Config) *Provider {
	return &Provider{
		embedder:  newEmbedder(client, config.EmbeddingModel),
		completer: newCompleter(client, config.CompletionModel),
		logger:    slog.Default().With("component", "bedrock-provider"),
	}
}

// Embedder returns the Titan embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Completer returns the Anthropic completion service.
func (p *Provider) Completer() ai.Completer {
	return p.completer
}

// Close is a no-op; the SDK client holds no resources needing release.
func (p *Provider) Close() error {
	p.logger.Debug("closing Bedrock provider")
	return nil
}
