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

	"github.com/poiesic/docvault/core"
)

// TagClient implements TagMatcher on top of a ChatCompleter.
//
// Every tag name the model returns must resolve to a catalog tag by
// case-insensitive exact match. A response naming an unknown tag fails the
// attempt and is retried like a transport error.
type TagClient struct {
	chat   ChatCompleter
	policy RetryPolicy
	logger *slog.Logger
}

// NewTagClient creates a tag matching client.
func NewTagClient(chat ChatCompleter, policy RetryPolicy) *TagClient {
	return &TagClient{
		chat:   chat,
		policy: policy,
		logger: slog.Default().With("component", "tag-client"),
	}
}

// MatchTags asks the model which catalog tags apply to text.
// Repeated names in the model output resolve to a single id; ids are
// returned in order of first mention.
func (c *TagClient) MatchTags(ctx context.Context, text string, catalog []*core.Tag) ([]core.ID, error) {
	if len(catalog) == 0 {
		c.logger.Debug("tag catalog is empty, skipping tag matching")
		return []core.ID{}, nil
	}

	index, err := core.IndexTags(catalog)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAmbiguousCatalog, err)
	}

	prompt := BuildTagMatchingPrompt(catalog)

	var (
		names []string
		ids   []core.ID
	)
	err = Retry(ctx, c.policy, func(attempt int) error {
		response, err := c.chat.Complete(ctx, prompt, text)
		if err != nil {
			c.logger.Warn("tag matching call failed", "attempt", attempt, "err", err)
			return err
		}

		parsed, err := ParseTags(response)
		if err != nil {
			c.logger.Warn("error parsing tag matching response",
				"attempt", attempt, "response", response, "err", err)
			return err
		}

		resolved, err := resolveTags(index, parsed)
		if err != nil {
			c.logger.Warn("tag matching returned unknown tag", "attempt", attempt, "err", err)
			return err
		}

		names, ids = parsed, resolved
		return nil
	})
	if err != nil {
		c.logger.Error("failed to match tags", "err", err)
		return nil, fmt.Errorf("match tags: %w", err)
	}

	c.logger.Info("generated matching tags", "tags", names, "count", len(ids))
	return ids, nil
}

func resolveTags(index map[string]*core.Tag, names []string) ([]core.ID, error) {
	ids := make([]core.ID, 0, len(names))
	seen := make(map[core.ID]struct{}, len(names))
	for _, name := range names {
		tag, ok := index[core.FoldTagName(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTag, name)
		}
		if _, dup := seen[tag.Id]; dup {
			continue
		}
		seen[tag.Id] = struct{}{}
		ids = append(ids, tag.Id)
	}
	return ids, nil
}
