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
	"context"
	"database/sql"
	"log/slog"

	"github.com/poiesic/docvault/ai"
	"gorm.io/gorm"
)

const chatCompleteSQL = `
SELECT ai.openai_chat_complete(
    ?,
    jsonb_build_array(
        jsonb_build_object('role', 'system', 'content', ?::text),
        jsonb_build_object('role', 'user', 'content', ?::text)
    ),
    response_format => '{"type": "json_object"}'::jsonb
) -> 'choices' -> 0 -> 'message' ->> 'content'`

// Sessioner runs work on a single connection with the API key setting applied.
type Sessioner interface {
	WithSession(ctx context.Context, fn func(conn *gorm.DB) error) error
}

// ChatCompleter implements ai.ChatCompleter with ai.openai_chat_complete.
type ChatCompleter struct {
	sessions Sessioner
	model    string
	logger   *slog.Logger
}

// NewChatCompleter creates a chat completer that runs on sessions.
func NewChatCompleter(sessions Sessioner, config *ai.Config) (ai.ChatCompleter, error) {
	return newChatCompleter(sessions, config)
}

func newChatCompleter(sessions Sessioner, config *ai.Config) (*ChatCompleter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ChatCompleter{
		sessions: sessions,
		model:    config.ChatModel,
		logger:   slog.Default().With("component", "pgai-chat"),
	}, nil
}

// Complete issues one chat completion and returns the first choice's content.
// The call runs in its own session scope and never inside a data transaction.
func (c *ChatCompleter) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var content sql.NullString
	err := c.sessions.WithSession(ctx, func(conn *gorm.DB) error {
		return conn.Raw(chatCompleteSQL, c.model, systemPrompt, userMessage).Row().Scan(&content)
	})
	if err != nil {
		c.logger.Error("chat completion failed", "err", err)
		return "", err
	}
	if !content.Valid {
		return "", ai.ErrEmptyResponse
	}
	return content.String, nil
}
