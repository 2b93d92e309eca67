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

package ai

import (
	"context"
	"fmt"
	"log/slog"
)

// FactClient implements FactExtractor on top of a ChatCompleter.
// Transport errors and malformed responses are retried under the client's policy.
type FactClient struct {
	chat   ChatCompleter
	policy RetryPolicy
	logger *slog.Logger
}

// NewFactClient creates a fact extraction client.
func NewFactClient(chat ChatCompleter, policy RetryPolicy) *FactClient {
	return &FactClient{
		chat:   chat,
		policy: policy,
		logger: slog.Default().With("component", "fact-client"),
	}
}

// ExtractFacts asks the model for the atomic facts in window.
func (c *FactClient) ExtractFacts(ctx context.Context, index int, window string) ([]string, error) {
	var facts []string
	err := Retry(ctx, c.policy, func(attempt int) error {
		response, err := c.chat.Complete(ctx, FactExtractionPrompt, window)
		if err != nil {
			c.logger.Warn("fact extraction call failed",
				"window", index, "attempt", attempt, "err", err)
			return err
		}

		parsed, err := ParseFacts(response)
		if err != nil {
			c.logger.Warn("error parsing fact extraction response",
				"window", index, "attempt", attempt, "response", response, "err", err)
			return err
		}

		facts = parsed
		return nil
	})
	if err != nil {
		c.logger.Error("failed to generate facts", "window", index, "err", err)
		return nil, fmt.Errorf("extract facts for window %d: %w", index, err)
	}

	c.logger.Info("generated facts", "window", index, "count", len(facts))
	return facts, nil
}
