// Package reembed recomputes the embedding of every stored chunk.
//
// Run it after changing the embedding model so stored vectors and query
// vectors come from the same model. Chunks are read in id order with keyset
// pagination, embedded in batches with exponential-backoff retry, and written
// back. With a checkpoint store, an interrupted run resumes after the last
// completed batch.
package reembed
