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

// Package ai provides the model-facing parts of docvault.
//
// The package defines the collaborator interfaces the rest of the system
// depends on, and the two structured clients built on top of them:
//
//   - ChatCompleter: one system prompt plus one user message in, text out
//   - Embedder / InlineEmbedder: text to fixed-dimension vectors
//   - FactClient: turns a document window into a list of atomic facts
//   - TagClient: picks catalog tags for a document and resolves them to ids
//
// Both clients expect a JSON object from the model ({"facts": [...]} or
// {"tags": [...]}). A transport error, a malformed payload or, for tags, a
// name missing from the catalog fails the attempt. Attempts are repeated
// under a RetryPolicy with a fixed delay; the default allows 5 retries one
// second apart.
//
// # Implementation Packages
//
//   - ai/pgai: calls the model through the database's ai extension, so the
//     API key only ever lives in a session setting
//   - ai/openai: calls an OpenAI-compatible API directly via langchaingo
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	facts := ai.NewFactClient(provider.ChatCompleter(), cfg.Retry)
//	list, err := facts.ExtractFacts(ctx, 0, window)
package ai
