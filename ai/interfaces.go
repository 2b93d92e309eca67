package ai

import (
	"context"

	"github.com/poiesic/docvault/core"
)

// ChatCompleter issues a single chat-completion request.
// Implementations must be thread-safe for concurrent use.
type ChatCompleter interface {
	// Complete sends a system prompt and one user message to the chat model
	// and returns the text content of the first choice.
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// InlineEmbedder is an Embedder whose vectors can be computed by the database
// as part of the statement that stores them.
type InlineEmbedder interface {
	Embedder

	// EmbedExpr returns an SQL expression and its arguments that evaluate to
	// the embedding of text.
	EmbedExpr(text string) (string, []any)
}

// FactExtractor turns one window of document text into atomic facts.
type FactExtractor interface {
	// ExtractFacts returns the facts found in window, in the order the model
	// produced them. index identifies the window in diagnostics only.
	ExtractFacts(ctx context.Context, index int, window string) ([]string, error)
}

// TagMatcher selects catalog tags that describe a document.
type TagMatcher interface {
	// MatchTags returns the ids of the catalog tags that apply to text.
	// An empty catalog yields an empty result without consulting the model.
	MatchTags(ctx context.Context, text string, catalog []*core.Tag) ([]core.ID, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// ChatCompleter returns the chat completion service.
	ChatCompleter() ChatCompleter

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
