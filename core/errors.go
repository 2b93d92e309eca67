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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTag indicates a Tag failed validation.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyName indicates a document or tag name is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyContent indicates a chunk has no text.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrDimensionMismatch indicates an embedding of the wrong size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDuplicateTagName indicates two tag names collide under case folding.
	ErrDuplicateTagName = errors.New("duplicate tag name")
)
