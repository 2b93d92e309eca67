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

package pgai

import (
	"log/slog"

	"github.com/poiesic/docvault/ai"
)

// Provider implements ai.AIProvider on top of the database's ai extension.
type Provider struct {
	chat     *ChatCompleter
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider creates a provider whose calls run on sessions.
// The sessions must carry the ai.openai_api_key setting.
//
// Returns ai.AIProvider interface to enforce abstraction; the embedder it
// hands out also implements ai.InlineEmbedder.
func NewProvider(sessions Sessioner, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	chat, err := newChatCompleter(sessions, config)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(sessions, config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		chat:     chat,
		embedder: embedder,
		logger:   slog.Default().With("component", "pgai-provider"),
	}, nil
}

// ChatCompleter returns the chat completion service.
func (p *Provider) ChatCompleter() ai.ChatCompleter {
	return p.chat
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; the connection pool belongs to the storage backend.
func (p *Provider) Close() error {
	p.logger.Debug("closing pgai provider")
	return nil
}
