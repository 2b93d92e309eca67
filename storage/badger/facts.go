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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docvault/storage"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "default"

// FactCache implements storage.FactCache for BadgerDB.
// Entries are grouped by namespace, normally the chat model that produced
// them, so switching models does not serve stale extractions.
type FactCache struct {
	backend     *Backend
	namespace   string
	ttl         time.Duration
	ownsBackend bool
	logger      *slog.Logger
}

var _ storage.FactCache = (*FactCache)(nil)

// FactCacheOption configures a FactCache.
type FactCacheOption func(*FactCache)

// WithNamespace sets the key namespace.
func WithNamespace(namespace string) FactCacheOption {
	return func(c *FactCache) {
		if namespace != "" {
			c.namespace = namespace
		}
	}
}

// WithTTL expires entries after ttl. Zero keeps entries forever.
func WithTTL(ttl time.Duration) FactCacheOption {
	return func(c *FactCache) {
		c.ttl = ttl
	}
}

// NewFactCache creates a fact cache on an open backend.
// Closing the cache leaves the backend open.
func NewFactCache(backend *Backend, opts ...FactCacheOption) *FactCache {
	c := &FactCache{
		backend:   backend,
		namespace: DefaultNamespace,
		logger:    backend.logger.With("repo", "facts"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenFactCache opens a BadgerDB database at path and returns a cache that
// owns it.
func OpenFactCache(path string, opts ...FactCacheOption) (*FactCache, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	c := NewFactCache(backend, opts...)
	c.ownsBackend = true
	return c, nil
}

// GetFacts returns the cached facts for key.
func (c *FactCache) GetFacts(ctx context.Context, key string) ([]string, bool, error) {
	var facts []string
	found := false
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFactKey(c.namespace, key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			facts, unmarshalErr = storage.UnmarshalFacts(val)
			found = unmarshalErr == nil
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, false, fmt.Errorf("get cached facts: %w", err)
	}
	return facts, found, nil
}

// PutFacts stores facts under key.
func (c *FactCache) PutFacts(ctx context.Context, key string, facts []string) error {
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeFactKey(c.namespace, key), storage.MarshalFacts(facts))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("put cached facts: %w", err)
	}
	c.logger.Debug("cached facts", "key", key, "count", len(facts))
	return nil
}

// Close releases the backend if the cache opened it.
func (c *FactCache) Close() error {
	if c.ownsBackend && !c.backend.IsClosed() {
		return c.backend.Close()
	}
	return nil
}
