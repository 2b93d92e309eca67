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

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
	"gorm.io/gorm"
)

// TagRepository implements storage.TagRepository.
type TagRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.TagRepository = (*TagRepository)(nil)

// NewTagRepository creates a tag repository on backend.
func NewTagRepository(backend *Backend) *TagRepository {
	return &TagRepository{
		backend: backend,
		logger:  backend.logger.With("repo", "tags"),
	}
}

// ListTags returns every catalog tag ordered by id.
func (r *TagRepository) ListTags(ctx context.Context) ([]*core.Tag, error) {
	var rows []tagRow
	if err := r.backend.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", translateError(err))
	}

	tags := make([]*core.Tag, len(rows))
	for i := range rows {
		tags[i] = rows[i].toCore()
	}
	return tags, nil
}

// AddTags adds tags to the catalog. Names are trimmed; a name that equals an
// existing one under case folding is rejected with storage.ErrDuplicateKey.
func (r *TagRepository) AddTags(ctx context.Context, names ...string) ([]*core.Tag, error) {
	if len(names) == 0 {
		return []*core.Tag{}, nil
	}

	rows := make([]tagRow, len(names))
	folded := make([]string, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if err := core.ValidateTagName(name); err != nil {
			return nil, err
		}
		key := core.FoldTagName(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: tag %q given twice", storage.ErrDuplicateKey, name)
		}
		seen[key] = struct{}{}
		rows[i] = tagRow{Name: name}
		folded[i] = key
	}

	err := r.backend.WithTransaction(ctx, func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&tagRow{}).Where("lower(name) IN ?", folded).Pluck("name", &existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: tag %q already exists", storage.ErrDuplicateKey, existing[0])
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("add tags: %w", translateError(err))
	}

	tags := make([]*core.Tag, len(rows))
	for i := range rows {
		tags[i] = rows[i].toCore()
	}
	r.logger.Info("tags added", "count", len(tags))
	return tags, nil
}

// DeleteTag removes a tag; its document links go with it.
func (r *TagRepository) DeleteTag(ctx context.Context, id core.ID) (bool, error) {
	result := r.backend.db.WithContext(ctx).Delete(&tagRow{}, int64(id))
	if result.Error != nil {
		return false, fmt.Errorf("delete tag %d: %w", id, translateError(result.Error))
	}
	return result.RowsAffected > 0, nil
}
