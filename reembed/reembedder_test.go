package reembed

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docvault/ai/mock"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage/badger"
	"github.com/poiesic/docvault/storage/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(batchSize int) *Config {
	return &Config{
		BatchSize:      batchSize,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func assertReembedded(t *testing.T, repo *postgres.ChunkRepository) {
	t.Helper()
	chunks, err := repo.ListChunksAfter(context.Background(), 0, 1000)
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.InDeltaSlice(t, mock.GenerateVector(chunk.Text, core.EmbeddingDimensions), chunk.Vector, 1e-6, chunk.Text)
	}
}

func TestReembedder_Run(t *testing.T) {
	repo := setupTestChunks(t, 23)
	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer

	err := NewReembedder(repo, embedder, fastConfig(10), &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, embedder.CallCount())
	assertReembedded(t, repo)
	assert.Contains(t, out.String(), "Starting reembedding of 23 chunks")
	assert.Contains(t, out.String(), "23/23")
	assert.Contains(t, out.String(), "Reembedding complete. Processed 23 chunks")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repo := setupTestChunks(t, 0)
	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer

	require.NoError(t, NewReembedder(repo, embedder, nil, &out).Run(context.Background()))
	assert.Zero(t, embedder.CallCount())
	assert.Contains(t, out.String(), "No chunks found")
}

func TestReembedder_RetriesBatch(t *testing.T) {
	repo := setupTestChunks(t, 5)
	embedder := mock.NewMockEmbedder()
	var mu sync.Mutex
	failures := 2
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return nil, errors.New("rate limited")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.GenerateVector(text, core.EmbeddingDimensions)
		}
		return vectors, nil
	}

	require.NoError(t, NewReembedder(repo, embedder, fastConfig(10), nil).Run(context.Background()))
	assert.Equal(t, 3, embedder.CallCount())
	assertReembedded(t, repo)
}

func TestReembedder_FailsAfterRetries(t *testing.T) {
	repo := setupTestChunks(t, 5)
	embedder := mock.NewMockEmbedder()
	errDown := errors.New("service down")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errDown
	}

	err := NewReembedder(repo, embedder, fastConfig(10), nil).Run(context.Background())
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 3, embedder.CallCount())
}

func TestReembedder_CountMismatch(t *testing.T) {
	repo := setupTestChunks(t, 5)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{mock.GenerateVector("x", core.EmbeddingDimensions)}, nil
	}

	err := NewReembedder(repo, embedder, fastConfig(10), nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrEmbeddingCount)
}

func TestReembedder_ResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	repo := setupTestChunks(t, 25)

	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	checkpoints := badger.NewCheckpointRepository(backend)

	// First run dies on the second batch.
	embedder := mock.NewMockEmbedder()
	var mu sync.Mutex
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n > 1 {
			return nil, errors.New("quota exceeded")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.GenerateVector(text, core.EmbeddingDimensions)
		}
		return vectors, nil
	}
	config := fastConfig(10)
	config.MaxRetries = 1
	err = NewReembedder(repo, embedder, config, nil, WithCheckpointStore(checkpoints)).Run(ctx)
	require.Error(t, err)

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, CheckpointJob)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)

	// Second run only touches the remaining 15 chunks.
	resumed := mock.NewMockEmbedder()
	var out bytes.Buffer
	err = NewReembedder(repo, resumed, fastConfig(10), &out, WithCheckpointStore(checkpoints)).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, resumed.CallCount())
	assert.Contains(t, out.String(), "15 of 25 chunks remaining")
	assert.Contains(t, out.String(), "Processed 15 chunks")
	assertReembedded(t, repo)

	checkpoint, err = checkpoints.LoadCheckpoint(ctx, CheckpointJob)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}
