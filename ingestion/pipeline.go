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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/pdftext"
	"github.com/poiesic/docvault/storage"
	"golang.org/x/sync/errgroup"
)

// Pipeline orchestrates document uploads.
// It is safe for concurrent use; uploads share the extraction worker pool
// and nothing else.
type Pipeline struct {
	documents    storage.DocumentRepository
	tags         storage.TagRepository
	facts        ai.FactExtractor
	matcher      ai.TagMatcher
	embedder     ai.Embedder
	pool         *ants.Pool
	text         pdftext.Extractor
	cache        storage.FactCache
	observer     StageObserver
	windowSize   int
	prefixLength int
	logger       *slog.Logger
}

// Result describes a completed upload.
type Result struct {
	Document   *core.Document
	ChunkCount int
	TagIDs     []core.ID
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of windows extracted concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "pipeline")
		return nil
	}
}

// WithWindowSize sets the number of characters per extraction window.
// Default is DefaultWindowSize.
func WithWindowSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("window size must be positive, got %d", size)
		}
		p.windowSize = size
		return nil
	}
}

// WithTagPrefixLength sets how many leading characters are used for tag matching.
// Default is DefaultTagPrefixLength.
func WithTagPrefixLength(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("tag prefix length must be positive, got %d", n)
		}
		p.prefixLength = n
		return nil
	}
}

// WithTextExtractor replaces the PDF text extractor.
func WithTextExtractor(extractor pdftext.Extractor) Option {
	return func(p *Pipeline) error {
		if extractor != nil {
			p.text = extractor
		}
		return nil
	}
}

// WithFactCache caches extracted facts by window content so a retried
// upload does not query the model again for windows already extracted.
func WithFactCache(cache storage.FactCache) Option {
	return func(p *Pipeline) error {
		p.cache = cache
		return nil
	}
}

// WithStageObserver registers a function notified of every stage transition.
func WithStageObserver(observer StageObserver) Option {
	return func(p *Pipeline) error {
		p.observer = observer
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
// When embedder is an ai.InlineEmbedder, vectors are left for the document
// repository to compute while inserting chunks.
func NewPipeline(
	documents storage.DocumentRepository,
	tags storage.TagRepository,
	facts ai.FactExtractor,
	matcher ai.TagMatcher,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if tags == nil {
		return nil, ErrTagRepositoryRequired
	}
	if facts == nil {
		return nil, ErrFactExtractorRequired
	}
	if matcher == nil {
		return nil, ErrTagMatcherRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:    documents,
		tags:         tags,
		facts:        facts,
		matcher:      matcher,
		embedder:     embedder,
		pool:         pool,
		text:         pdftext.NewPDFExtractor(),
		windowSize:   DefaultWindowSize,
		prefixLength: DefaultTagPrefixLength,
		logger:       slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Upload extracts the text of a PDF and stores it as document name.
func (p *Pipeline) Upload(ctx context.Context, name string, pdf []byte) (*Result, error) {
	if err := core.ValidateDocument(&core.Document{Name: name}); err != nil {
		return nil, err
	}

	p.transition(name, StageSplitting)
	text, err := pdftext.ExtractText(ctx, p.text, pdf)
	if err != nil {
		return nil, p.fail(name, StageSplitting, err)
	}
	return p.process(ctx, name, text)
}

// UploadText stores already extracted text as document name.
func (p *Pipeline) UploadText(ctx context.Context, name string, text string) (*Result, error) {
	if err := core.ValidateDocument(&core.Document{Name: name}); err != nil {
		return nil, err
	}

	p.transition(name, StageSplitting)
	return p.process(ctx, name, text)
}

func (p *Pipeline) process(ctx context.Context, name string, text string) (*Result, error) {
	start := time.Now()
	windows := SplitWindows(text, p.windowSize)
	p.logger.Info("processing document", "name", name, "windows", len(windows))

	p.transition(name, StageExtracting)
	var windowFacts [][]string
	var tagIDs []core.ID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		windowFacts, err = p.extractWindows(gctx, windows)
		return err
	})
	g.Go(func() error {
		var err error
		tagIDs, err = p.matchTags(gctx, Prefix(text, p.prefixLength))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, p.fail(name, StageExtracting, err)
	}

	p.transition(name, StageJoining)
	chunks := flatten(windowFacts)

	p.transition(name, StagePersisting)
	if err := p.embed(ctx, chunks); err != nil {
		return nil, p.fail(name, StagePersisting, err)
	}
	doc, err := p.documents.CreateDocument(ctx, &core.Document{Name: name}, chunks, tagIDs)
	if err != nil {
		return nil, p.fail(name, StagePersisting, err)
	}

	p.transition(name, StageDone)
	p.logger.Info("document stored",
		"document", doc.Id,
		"name", name,
		"chunks", len(chunks),
		"tags", len(tagIDs),
		"elapsed", time.Since(start))

	return &Result{Document: doc, ChunkCount: len(chunks), TagIDs: tagIDs}, nil
}

// extractWindows runs fact extraction for every window on the worker pool.
// Results are gathered by window index. The first failure cancels the
// remaining windows and is returned.
func (p *Pipeline) extractWindows(ctx context.Context, windows []string) ([][]string, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	results := make([][]string, len(windows))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	failed := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel(err)
		})
	}

	for i, window := range windows {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			facts, err := p.extractWindow(ctx, i, window)
			if err != nil {
				failed(err)
				return
			}
			results[i] = facts
		})
		if err != nil {
			wg.Done()
			failed(fmt.Errorf("submit window %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = context.Cause(ctx)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (p *Pipeline) extractWindow(ctx context.Context, index int, window string) ([]string, error) {
	var key string
	if p.cache != nil {
		key = core.ContentKey(window)
		facts, ok, err := p.cache.GetFacts(ctx, key)
		if err != nil {
			p.logger.Warn("error reading fact cache", "window", index, "err", err)
		} else if ok {
			p.logger.Debug("using cached facts", "window", index, "count", len(facts))
			return facts, nil
		}
	}

	facts, err := p.facts.ExtractFacts(ctx, index, window)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.PutFacts(ctx, key, facts); err != nil {
			p.logger.Warn("error writing fact cache", "window", index, "err", err)
		}
	}
	return facts, nil
}

func (p *Pipeline) matchTags(ctx context.Context, prefix string) ([]core.ID, error) {
	catalog, err := p.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tag catalog: %w", err)
	}
	return p.matcher.MatchTags(ctx, prefix, catalog)
}

// embed fills in chunk vectors unless the store computes them on insert.
func (p *Pipeline) embed(ctx context.Context, chunks []*core.Chunk) error {
	if _, inline := p.embedder.(ai.InlineEmbedder); inline || len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed facts: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d, want %d", ErrEmbeddingCount, len(vectors), len(chunks))
	}
	for i, vector := range vectors {
		chunks[i].Vector = vector
	}
	return nil
}

// flatten orders chunks by window, then by position within the window.
// Blank facts are dropped.
func flatten(windowFacts [][]string) []*core.Chunk {
	var chunks []*core.Chunk
	for _, facts := range windowFacts {
		for _, fact := range facts {
			if strings.TrimSpace(fact) == "" {
				continue
			}
			chunks = append(chunks, &core.Chunk{Text: fact})
		}
	}
	return chunks
}

func (p *Pipeline) transition(name string, stage Stage) {
	p.logger.Debug("upload stage", "name", name, "stage", stage)
	if p.observer != nil {
		p.observer(name, stage)
	}
}

func (p *Pipeline) fail(name string, stage Stage, err error) error {
	p.logger.Error("upload failed", "name", name, "stage", stage, "err", err)
	p.transition(name, StageFailed)
	return &UploadError{Stage: stage, Document: name, Err: err}
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
