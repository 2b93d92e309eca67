package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
)

// DefaultLimit is used when a search asks for no particular number of results.
const DefaultLimit = 10

// Searcher provides semantic search over document facts.
type Searcher struct {
	chunks       storage.ChunkRepository
	embedder     ai.Embedder
	minScore     float32
	keywordBoost float32
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithMinScore drops results whose cosine similarity is below score.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		s.minScore = score
		return nil
	}
}

// WithKeywordBoost adds boost to the score of results containing every
// query word, and re-ranks. Zero disables boosting.
func WithKeywordBoost(boost float32) Option {
	return func(s *Searcher) error {
		s.keywordBoost = boost
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:   chunks,
		embedder: embedder,
		logger:   slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to limit facts nearest to query, most similar first.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, limit, nil)
}

// SearchWithMonitor searches like Search and reports each stage to monitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, limit int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Fetch extra candidates when boosting may reorder them.
	candidates := limit
	if s.keywordBoost != 0 {
		candidates = limit * 2
	}
	matches, err := s.chunks.FindSimilar(ctx, embedding, candidates)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matches)

	matcher := newKeywordMatcher(query)
	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match.Score < s.minScore {
			continue
		}
		if s.keywordBoost != 0 && matcher.matches(match.Chunk.Text) {
			match.Score += s.keywordBoost
			monitor.KeywordHit(match)
		}
		results = append(results, match)
	}

	if s.keywordBoost != 0 {
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
	}
	if len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug("search complete", "query", query, "candidates", len(matches), "results", len(results))
	monitor.Finish(results)
	return results, nil
}
