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

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
	"gorm.io/gorm"
)

// DefaultInsertBatchSize bounds the chunk rows sent in one INSERT, keeping
// the statement well under PostgreSQL's 65535 bind parameter limit.
const DefaultInsertBatchSize = 1000

// DocumentRepository implements storage.DocumentRepository.
type DocumentRepository struct {
	backend   *Backend
	inline    ai.InlineEmbedder
	batchSize int
	logger    *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// DocumentOption configures a DocumentRepository.
type DocumentOption func(*DocumentRepository)

// WithInlineEmbedder makes CreateDocument compute missing chunk vectors in
// the insert statement itself.
func WithInlineEmbedder(embedder ai.InlineEmbedder) DocumentOption {
	return func(r *DocumentRepository) {
		r.inline = embedder
	}
}

// WithInsertBatchSize sets how many chunk rows go into one INSERT.
// Values below 1 keep DefaultInsertBatchSize.
func WithInsertBatchSize(n int) DocumentOption {
	return func(r *DocumentRepository) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// NewDocumentRepository creates a document repository on backend.
func NewDocumentRepository(backend *Backend, opts ...DocumentOption) *DocumentRepository {
	r := &DocumentRepository{
		backend:   backend,
		batchSize: DefaultInsertBatchSize,
		logger:    backend.logger.With("repo", "documents"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateDocument inserts the document row, one row per chunk and one link
// per tag id in a single transaction.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk, tagIDs []core.ID) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
		if chunk.Vector == nil && r.inline == nil {
			return nil, fmt.Errorf("%w: %q", storage.ErrMissingEmbedding, chunk.Text)
		}
	}

	row := documentRow{Name: doc.Name}
	var tagNames []string

	err := r.backend.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if len(chunks) > 0 {
			values := make([]map[string]any, len(chunks))
			for i, chunk := range chunks {
				values[i] = map[string]any{
					"document_id": row.ID,
					"chunk":       chunk.Text,
					"embedding":   r.embeddingValue(chunk),
				}
			}
			// Table, not Model: map rows have nowhere to receive RETURNING ids.
			if err := tx.Table(chunkRow{}.TableName()).CreateInBatches(values, r.batchSize).Error; err != nil {
				return err
			}
		}

		if len(tagIDs) > 0 {
			links := make([]documentTagRow, len(tagIDs))
			for i, id := range tagIDs {
				links[i] = documentTagRow{DocumentID: row.ID, TagID: int64(id)}
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
			if err := tx.Model(&tagRow{}).Where("id IN ?", idsToInt64(tagIDs)).Order("name ASC").Pluck("name", &tagNames).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("document transaction rolled back", "name", doc.Name, "err", err)
		return nil, fmt.Errorf("%w: create document: %w", storage.ErrTransactionFailed, translateError(err))
	}

	for _, chunk := range chunks {
		chunk.DocumentId = core.ID(row.ID)
	}
	return row.toCore(tagNames), nil
}

// embeddingValue returns the stored vector, or an expression computing it.
func (r *DocumentRepository) embeddingValue(chunk *core.Chunk) any {
	if chunk.Vector != nil {
		return pgvector.NewVector(chunk.Vector)
	}
	sql, args := r.inline.EmbedExpr(chunk.Text)
	return gorm.Expr(sql, args...)
}

// GetDocument retrieves a document with its tag names.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	db := r.backend.db.WithContext(ctx)

	var row documentRow
	if err := db.First(&row, int64(id)).Error; err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, translateError(err))
	}

	tags, err := r.tagNames(db, []int64{row.ID})
	if err != nil {
		return nil, fmt.Errorf("get document %d tags: %w", id, translateError(err))
	}
	return row.toCore(tags[row.ID]), nil
}

// ListDocuments returns every document with its aggregated tag names.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	db := r.backend.db.WithContext(ctx)

	var rows []documentRow
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", translateError(err))
	}
	if len(rows) == 0 {
		return []*core.Document{}, nil
	}

	tags, err := r.tagNames(db, nil)
	if err != nil {
		return nil, fmt.Errorf("list document tags: %w", translateError(err))
	}

	docs := make([]*core.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].toCore(tags[rows[i].ID])
	}
	return docs, nil
}

type documentTagName struct {
	DocumentID int64
	Name       string
}

// tagNames loads tag names per document. A nil ids slice loads all links.
func (r *DocumentRepository) tagNames(db *gorm.DB, ids []int64) (map[int64][]string, error) {
	query := db.Table("document_tags").
		Select("document_tags.document_id, tags.name").
		Joins("JOIN tags ON tags.id = document_tags.tag_id").
		Order("document_tags.document_id ASC, tags.name ASC")
	if ids != nil {
		query = query.Where("document_tags.document_id IN ?", ids)
	}

	var pairs []documentTagName
	if err := query.Scan(&pairs).Error; err != nil {
		return nil, err
	}

	out := make(map[int64][]string)
	for _, p := range pairs {
		out[p.DocumentID] = append(out[p.DocumentID], p.Name)
	}
	return out, nil
}

// DeleteDocument removes a document; chunks and tag links cascade.
// A missing id affects no rows and is not an error.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) (bool, error) {
	result := r.backend.db.WithContext(ctx).Delete(&documentRow{}, int64(id))
	if result.Error != nil {
		return false, fmt.Errorf("delete document %d: %w", id, translateError(result.Error))
	}
	r.logger.Debug("document deleted", "id", id, "rows", result.RowsAffected)
	return result.RowsAffected > 0, nil
}

// GetChunks returns a document's chunks in insertion order.
func (r *DocumentRepository) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var rows []chunkRow
	err := r.backend.db.WithContext(ctx).
		Where("document_id = ?", int64(documentID)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get chunks for document %d: %w", documentID, translateError(err))
	}
	return chunksToCore(rows), nil
}

func chunksToCore(rows []chunkRow) []*core.Chunk {
	chunks := make([]*core.Chunk, len(rows))
	for i := range rows {
		chunks[i] = rows[i].toCore()
	}
	return chunks
}

func idsToInt64(ids []core.ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
