package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrTagRepositoryRequired is returned when a tag repository is not provided.
	ErrTagRepositoryRequired = errors.New("tag repository required")

	// ErrFactExtractorRequired is returned when a fact extractor is not provided.
	ErrFactExtractorRequired = errors.New("fact extractor required")

	// ErrTagMatcherRequired is returned when a tag matcher is not provided.
	ErrTagMatcherRequired = errors.New("tag matcher required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingCount is returned when the embedder returns a different
	// number of vectors than facts it was given.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
