// Package badger provides BadgerDB-backed local stores for docvault.
//
// FactCache remembers the facts extracted for each window of text so a failed
// upload can be retried without asking the model again. CheckpointRepository
// records how far a re-embedding run got so it can resume.
//
// Values are serialized with the mus-go helpers in package storage.
package badger
