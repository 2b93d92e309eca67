// Package ingestion turns uploaded documents into stored facts.
//
// The Pipeline type manages one upload end to end:
//   - Extracting page text from the PDF and splitting it into fixed windows
//   - Extracting facts from every window concurrently on a worker pool
//   - Matching the document against the tag catalog while facts are extracted
//   - Embedding the facts and persisting document, chunks and tag links atomically
//
// A failure anywhere fails the whole upload and nothing is stored. Failures are
// reported as *UploadError values carrying the stage that failed.
package ingestion
