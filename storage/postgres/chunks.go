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
	"math"
	"slices"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
	"gorm.io/gorm"
)

// ChunkRepository implements storage.ChunkRepository.
type ChunkRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository on backend.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{
		backend: backend,
		logger:  backend.logger.With("repo", "chunks"),
	}
}

// CountChunks returns the total number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.backend.db.WithContext(ctx).Model(&chunkRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chunks: %w", translateError(err))
	}
	return count, nil
}

// CountChunksAfter returns the number of chunks with id > afterID.
func (r *ChunkRepository) CountChunksAfter(ctx context.Context, afterID core.ID) (int64, error) {
	var count int64
	err := r.backend.db.WithContext(ctx).Model(&chunkRow{}).Where("id > ?", int64(afterID)).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", translateError(err))
	}
	return count, nil
}

// ListChunksAfter returns up to limit chunks with id > afterID, ordered by id.
func (r *ChunkRepository) ListChunksAfter(ctx context.Context, afterID core.ID, limit int) ([]*core.Chunk, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var rows []chunkRow
	err := r.backend.db.WithContext(ctx).
		Where("id > ?", int64(afterID)).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks after %d: %w", afterID, translateError(err))
	}
	return chunksToCore(rows), nil
}

// UpdateChunkEmbeddings replaces the stored vectors of the given chunks in one transaction.
func (r *ChunkRepository) UpdateChunkEmbeddings(ctx context.Context, chunks []*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.Vector == nil {
			return fmt.Errorf("%w: chunk %d", storage.ErrMissingEmbedding, chunk.Id)
		}
	}

	err := r.backend.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, chunk := range chunks {
			result := tx.Model(&chunkRow{}).
				Where("id = ?", int64(chunk.Id)).
				Update("embedding", pgvector.NewVector(chunk.Vector))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, chunk.Id)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update chunk embeddings: %w", translateError(err))
	}
	return nil
}

type similarRow struct {
	ID           int64
	DocumentID   int64
	Chunk        string
	Embedding    pgvector.Vector
	DocumentName string
	Score        float64
}

func (r *similarRow) toCore() *core.Chunk {
	return &core.Chunk{
		Id:         core.ID(r.ID),
		DocumentId: core.ID(r.DocumentID),
		Text:       r.Chunk,
		Vector:     r.Embedding.Slice(),
	}
}

// FindSimilar returns the chunks nearest to vector by cosine distance.
// On PostgreSQL the vector index answers the query; other dialects compute
// the distance in process.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if len(vector) != core.EmbeddingDimensions {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, core.ErrDimensionMismatch)
	}

	if !r.backend.IsPostgres() {
		return r.findSimilarInProcess(ctx, vector, limit)
	}

	query := pgvector.NewVector(vector)
	var rows []similarRow
	err := r.backend.WithTransaction(ctx, func(tx *gorm.DB) error {
		if r.backend.queryRescore > 0 {
			if err := tx.Exec("SELECT set_config('diskann.query_rescore', ?, true)", fmt.Sprint(r.backend.queryRescore)).Error; err != nil {
				return err
			}
		}
		return tx.Raw(`
			SELECT c.id, c.document_id, c.chunk, c.embedding, d.name AS document_name,
			       1 - (c.embedding <=> ?) AS score
			FROM document_information_chunks c
			JOIN documents d ON d.id = c.document_id
			ORDER BY c.embedding <=> ?
			LIMIT ?`, query, query, limit).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("find similar chunks: %w", translateError(err))
	}

	results := make([]*core.SearchResult, len(rows))
	for i := range rows {
		results[i] = &core.SearchResult{
			Chunk:        rows[i].toCore(),
			DocumentName: rows[i].DocumentName,
			Score:        float32(rows[i].Score),
		}
	}
	return results, nil
}

func (r *ChunkRepository) findSimilarInProcess(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	var rows []similarRow
	err := r.backend.db.WithContext(ctx).
		Table("document_information_chunks").
		Select("document_information_chunks.id, document_information_chunks.document_id, " +
			"document_information_chunks.chunk, document_information_chunks.embedding, " +
			"documents.name AS document_name").
		Order("document_information_chunks.id ASC").
		Joins("JOIN documents ON documents.id = document_information_chunks.document_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find similar chunks: %w", translateError(err))
	}

	results := make([]*core.SearchResult, 0, len(rows))
	for i := range rows {
		chunk := rows[i].toCore()
		results = append(results, &core.SearchResult{
			Chunk:        chunk,
			DocumentName: rows[i].DocumentName,
			Score:        cosineSimilarity(vector, chunk.Vector),
		})
	}

	// Sort by similarity descending, ties by id
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity returns 1 - cosine distance, matching pgvector's <=> operator.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
