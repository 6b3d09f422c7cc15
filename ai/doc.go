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


// Package ai provides abstractions for the AI services used by ragline.
//
// This package defines interfaces for text embeddings and text completion.
// The retrieval and answering pipeline depends on these abstractions rather
// than on concrete backends.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Completer: Generates an answer from an assembled prompt
//   - Provider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//   - ai/bedrock: AWS Bedrock (Titan embeddings, Anthropic messages)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Errors and Retries
//
// Backends report failures as *ProviderError, classified as permanent,
// transient or rate-limited by Classify. RetryWithBackoff and the
// NewRetrying* decorators retry only rate-limited failures, doubling the
// delay on each attempt up to a small attempt ceiling. NewThrottled*
// decorators add proactive client-side throttling with a token bucket.
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockCompleter) return CONCRETE types to
// enable assertions via CallCount, Reset and the injectable Func fields.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "How do I refresh a token?")
//	answer, err := provider.Completer().Complete(ctx, prompt, ai.CompletionOptions{Temperature: 0.3})
package ai
