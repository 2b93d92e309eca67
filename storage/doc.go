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

// Package storage provides the storage abstraction layer for docvault.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion pipeline, search and maintenance code.
//
// # Architecture
//
//   - TagRepository: the controlled tag vocabulary
//   - DocumentRepository: documents, their chunks and tag links, written atomically
//   - ChunkRepository: chunk maintenance and vector similarity search
//   - FactCache: optional cache of per-window extraction results
//   - CheckpointStore: progress of resumable maintenance jobs
//
// Implementations live in sub-packages:
//
//   - storage/postgres: PostgreSQL with pgvector through gorm (SQLite for tests)
//   - storage/badger: BadgerDB-backed FactCache and CheckpointStore
//
// # Usage
//
//	backend, err := postgres.Open(dsn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	if err := backend.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	docs := postgres.NewDocumentRepository(backend)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
