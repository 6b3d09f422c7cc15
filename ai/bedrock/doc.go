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


// Package bedrock provides AI service implementations backed by AWS Bedrock.
//
// Embeddings use the Amazon Titan text embedding request format and answers
// use the Anthropic messages format, both through bedrockruntime.InvokeModel.
// Credentials and region resolution follow the standard AWS SDK chain.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithBackend(ai.BackendBedrock),
//	    ai.WithRegion("us-east-1"),
//	    ai.WithEmbeddingModel("amazon.titan-embed-text-v2:0"),
//	    ai.WithCompletionModel("anthropic.claude-3-haiku-20240307-v1:0"),
//	)
//	provider, err := bedrock.NewProvider(ctx, config)
package bedrock
