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

package storage

import (
	"fmt"
	"time"

	"github.com/poiesic/docvault/core"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MarshalFacts serializes a fact list as a varint count followed by
// length-prefixed strings.
func MarshalFacts(facts []string) []byte {
	size := varint.Uint64.Size(uint64(len(facts)))
	for _, fact := range facts {
		size += ord.String.Size(fact)
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(len(facts)), buf)
	for _, fact := range facts {
		n += ord.String.Marshal(fact, buf[n:])
	}
	return buf
}

// UnmarshalFacts deserializes a fact list written by MarshalFacts.
func UnmarshalFacts(data []byte) ([]string, error) {
	count, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: fact count: %w", ErrSerializationFailed, err)
	}
	// Every fact takes at least one byte for its length prefix.
	if count > uint64(len(data)-n) {
		return nil, fmt.Errorf("%w: %d facts declared in %d bytes", ErrTruncatedData, count, len(data)-n)
	}

	facts := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		fact, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: fact %d: %w", ErrSerializationFailed, i, err)
		}
		n += m
		facts = append(facts, fact)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return facts, nil
}

// MarshalCheckpoint serializes a checkpoint's last id and update time.
// The job name is carried by the key and not stored.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	lastID := int64(checkpoint.LastID)
	updated := checkpoint.UpdatedAt.UnixMicro()

	buf := make([]byte, varint.Int64.Size(lastID)+varint.Int64.Size(updated))
	n := varint.Int64.Marshal(lastID, buf)
	varint.Int64.Marshal(updated, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a checkpoint written by MarshalCheckpoint.
func UnmarshalCheckpoint(job string, data []byte) (*core.Checkpoint, error) {
	lastID, n, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint id: %w", ErrSerializationFailed, err)
	}
	updated, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint time: %w", ErrSerializationFailed, err)
	}
	if n+m != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n-m)
	}
	return &core.Checkpoint{
		Job:       job,
		LastID:    core.ID(lastID),
		UpdatedAt: time.UnixMicro(updated).UTC(),
	}, nil
}
