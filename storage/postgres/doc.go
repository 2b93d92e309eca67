// Package postgres implements the storage interfaces on PostgreSQL with the
// pgvector extension, using gorm.
//
// The schema has four tables: documents, tags, document_tags and
// document_information_chunks. Links and chunks reference their parents with
// ON DELETE CASCADE, tag names are unique under lower(), and the embedding
// column carries a cosine-distance index (diskann by default, from
// pgvectorscale).
//
// A Backend owns the connection pool. WithTransaction runs data changes
// atomically; WithSession pins one connection and applies the configured
// session settings (such as ai.openai_api_key) around a single operation
// without opening a transaction.
//
// OpenMemory returns a SQLite-backed Backend with the same schema for tests.
// Similarity search falls back to an in-process scan there.
package postgres
