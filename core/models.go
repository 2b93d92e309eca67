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

package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// EmbeddingDimensions is the fixed size of every stored chunk embedding.
const EmbeddingDimensions = 1536

// ID is a unique identifier for domain entities.
// It is assigned by the relational store's sequences.
type ID int64

// ContentKey returns a stable hex-encoded BLAKE2b digest of text.
// Identical text always produces the same key.
func ContentKey(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Document is an uploaded PDF.
type Document struct {
	Id        ID
	Name      string
	CreatedAt time.Time
	Tags      []string // Tag names linked to the document (populated by reads)
}

// Tag is an entry of the controlled tag vocabulary.
type Tag struct {
	Id   ID
	Name string
}

// Chunk is one atomic fact extracted from a document window.
type Chunk struct {
	Id         ID
	DocumentId ID
	Text       string
	Vector     []float32 // nil when the store computes the embedding at insert time
}

// SearchResult is a chunk returned by similarity search.
type SearchResult struct {
	Chunk        *Chunk
	DocumentName string
	Score        float32 // Cosine similarity, higher is closer
}

// Checkpoint records how far a resumable job has progressed.
type Checkpoint struct {
	Job       string
	LastID    ID // Highest id fully processed
	UpdatedAt time.Time
}
