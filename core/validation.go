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

package core

import (
	"fmt"
	"strings"
)

// ValidateDocument checks that a document can be stored.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyName)
	}
	return nil
}

// ValidateTagName checks that a tag name can be added to the catalog.
func ValidateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTag, ErrEmptyName)
	}
	return nil
}

// ValidateChunk checks chunk text and, when present, the embedding size.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if chunk.Vector != nil && len(chunk.Vector) != EmbeddingDimensions {
		return fmt.Errorf("%w: %w: got %d, want %d",
			ErrInvalidChunk, ErrDimensionMismatch, len(chunk.Vector), EmbeddingDimensions)
	}
	return nil
}

// FoldTagName returns the key tag names are compared under.
func FoldTagName(name string) string {
	return strings.ToLower(name)
}

// IndexTags maps folded tag names to tags.
// Returns ErrDuplicateTagName if two names collide under case folding,
// since a model's answer could not be resolved unambiguously.
func IndexTags(tags []*Tag) (map[string]*Tag, error) {
	index := make(map[string]*Tag, len(tags))
	for _, tag := range tags {
		key := FoldTagName(tag.Name)
		if existing, ok := index[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q", ErrDuplicateTagName, existing.Name, tag.Name)
		}
		index[key] = tag
	}
	return index, nil
}
