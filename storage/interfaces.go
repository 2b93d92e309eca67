package storage

import (
	"context"

	"github.com/poiesic/docvault/core"
)

// TagRepository provides operations on the tag catalog.
// Implementations must be thread-safe and support concurrent access.
type TagRepository interface {
	// ListTags returns every catalog tag ordered by id.
	ListTags(ctx context.Context) ([]*core.Tag, error)

	// AddTags adds tags to the catalog and returns them with ids populated.
	// Returns ErrDuplicateKey if a name collides case-insensitively with an
	// existing tag or another name in the same call.
	AddTags(ctx context.Context, names ...string) ([]*core.Tag, error)

	// DeleteTag removes a tag and its document links.
	// Returns false without error when the tag does not exist.
	DeleteTag(ctx context.Context, id core.ID) (bool, error)
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	// CreateDocument stores the document, its chunks and its tag links in one
	// transaction. Either all rows are written or none are.
	// Chunks without a vector are embedded by the store while inserting, which
	// requires an inline embedder; otherwise ErrMissingEmbedding is returned.
	// Returns the document with Id and CreatedAt populated.
	CreateDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk, tagIDs []core.ID) (*core.Document, error)

	// GetDocument retrieves a document with its tag names.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments returns every document with its tag names, ordered by id.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document together with its chunks and tag links.
	// Deleting a missing id is a no-op that returns false and no error.
	DeleteDocument(ctx context.Context, id core.ID) (bool, error)

	// GetChunks returns a document's chunks in insertion order.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)
}

// ChunkRepository provides maintenance and retrieval operations on chunks.
type ChunkRepository interface {
	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int64, error)

	// CountChunksAfter returns the number of chunks with id > afterID.
	CountChunksAfter(ctx context.Context, afterID core.ID) (int64, error)

	// ListChunksAfter returns up to limit chunks with id > afterID, ordered by id.
	ListChunksAfter(ctx context.Context, afterID core.ID, limit int) ([]*core.Chunk, error)

	// UpdateChunkEmbeddings replaces the stored vectors of the given chunks.
	UpdateChunkEmbeddings(ctx context.Context, chunks []*core.Chunk) error

	// FindSimilar returns the chunks nearest to vector by cosine distance,
	// most similar first, up to limit results.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error)
}

// FactCache remembers the facts extracted for a window of text.
type FactCache interface {
	// GetFacts returns the cached facts for key. The boolean reports whether
	// the key was present.
	GetFacts(ctx context.Context, key string) ([]string, bool, error)

	// PutFacts stores facts under key.
	PutFacts(ctx context.Context, key string, facts []string) error

	// Close releases resources held by the cache.
	Close() error
}

// CheckpointStore persists progress of resumable maintenance jobs.
type CheckpointStore interface {
	// LoadCheckpoint returns the checkpoint for job, or nil if none exists.
	LoadCheckpoint(ctx context.Context, job string) (*core.Checkpoint, error)

	// SaveCheckpoint stores checkpoint, replacing any previous one for its job.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// ClearCheckpoint removes the checkpoint for job.
	ClearCheckpoint(ctx context.Context, job string) error
}
