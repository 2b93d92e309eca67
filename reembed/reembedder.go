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

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
)

// CheckpointJob names the re-embedding job in a checkpoint store.
const CheckpointJob = "reembed"

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all chunks in a database.
type Reembedder struct {
	repo        storage.ChunkRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *ChunkIterator
	checkpoints storage.CheckpointStore
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithCheckpointStore makes runs resumable. Progress is saved after each
// batch and cleared when a run completes.
func WithCheckpointStore(store storage.CheckpointStore) Option {
	return func(r *Reembedder) {
		r.checkpoints = store
	}
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer, opts ...Option) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(repo, config.BatchSize),
		logger:    slog.Default().With("component", "reembed"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run re-embeds every stored chunk with the configured embedder.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.repo.CountChunks(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in database (0 chunks)\n")
		return nil
	}

	var afterID core.ID
	if r.checkpoints != nil {
		checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, CheckpointJob)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if checkpoint != nil {
			afterID = checkpoint.LastID
			r.logger.Info("resuming reembedding", "after", afterID, "saved", checkpoint.UpdatedAt)
		}
	}

	done := 0
	if afterID > 0 {
		remaining, err := r.repo.CountChunksAfter(ctx, afterID)
		if err != nil {
			return fmt.Errorf("count remaining chunks: %w", err)
		}
		done = int(total - remaining)
		fmt.Fprintf(r.progress, "Resuming reembedding after chunk %d (%d of %d chunks remaining)\n",
			afterID, remaining, total)
	} else {
		fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
			total, r.config.BatchSize)
	}

	tracker := NewProgressTracker(r.progress, "chunks", int(total), r.config.ReportInterval)
	tracker.Start(done)

	processed := done
	err = r.iterator.ForEach(ctx, afterID, func(chunks []*core.Chunk) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		if r.checkpoints != nil {
			last := chunks[len(chunks)-1].Id
			if err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Job: CheckpointJob, LastID: last}); err != nil {
				r.logger.Warn("error saving checkpoint", "last", last, "err", err)
			}
		}

		processed += len(chunks)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	if r.checkpoints != nil {
		if err := r.checkpoints.ClearCheckpoint(ctx, CheckpointJob); err != nil {
			r.logger.Warn("error clearing checkpoint", "err", err)
		}
	}

	elapsed := tracker.Elapsed()
	count := processed - done
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		count, elapsed.Round(time.Millisecond), float64(count)/elapsed.Seconds())

	return nil
}
