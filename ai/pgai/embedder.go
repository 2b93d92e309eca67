package pgai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/docvault/ai"
	"gorm.io/gorm"
)

const embedExpr = "ai.openai_embed(?, ?)"

// Embedder implements ai.InlineEmbedder with ai.openai_embed.
type Embedder struct {
	sessions Sessioner
	model    string
	logger   *slog.Logger
}

var _ ai.InlineEmbedder = (*Embedder)(nil)

// NewEmbedder creates an embedder that runs on sessions.
func NewEmbedder(sessions Sessioner, config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Embedder{
		sessions: sessions,
		model:    config.EmbeddingModel,
		logger:   slog.Default().With("component", "pgai-embedder"),
	}, nil
}

// EmbedExpr returns the expression that embeds text inside an SQL statement.
// The statement must run where the API key setting is in effect.
func (e *Embedder) EmbedExpr(text string) (string, []any) {
	return embedExpr, []any{e.model, text}
}

// EmbedText embeds a single text in its own session scope.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts one statement each, all on one session.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	err := e.sessions.WithSession(ctx, func(conn *gorm.DB) error {
		for i, text := range texts {
			var raw string
			if err := conn.Raw("SELECT "+embedExpr+"::text", e.model, text).Row().Scan(&raw); err != nil {
				return err
			}
			vector, err := parseVector(raw)
			if err != nil {
				return err
			}
			vectors[i] = vector
		}
		return nil
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}

// parseVector decodes pgvector's text representation.
func parseVector(raw string) ([]float32, error) {
	var v pgvector.Vector
	if err := v.Scan(raw); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}
	return v.Slice(), nil
}
