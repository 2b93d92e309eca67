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

// Package docvault wires storage, AI providers and the ingestion, search
// and maintenance services into one handle.
package docvault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/ai/openai"
	"github.com/poiesic/docvault/ai/pgai"
	"github.com/poiesic/docvault/ingestion"
	"github.com/poiesic/docvault/reembed"
	"github.com/poiesic/docvault/search"
	"github.com/poiesic/docvault/storage"
	"github.com/poiesic/docvault/storage/badger"
	"github.com/poiesic/docvault/storage/postgres"
)

// APIKeySetting is the session setting the database's ai extension reads
// the provider credential from.
const APIKeySetting = "ai.openai_api_key"

// ErrPgaiRequiresPostgres is returned when pgai mode is configured on a
// store that is not PostgreSQL.
var ErrPgaiRequiresPostgres = errors.New("pgai mode requires a PostgreSQL store")

// Vault owns the connection pool, the AI provider and the optional local
// cache for the lifetime of the process.
type Vault struct {
	backend     *postgres.Backend
	documents   *postgres.DocumentRepository
	tags        *postgres.TagRepository
	chunks      *postgres.ChunkRepository
	provider    ai.AIProvider
	aiConfig    *ai.Config
	local       *badger.Backend
	cache       *badger.FactCache
	checkpoints *badger.CheckpointRepository
	logger      *slog.Logger
}

// Option configures a Vault.
type Option func(*vaultOptions)

type vaultOptions struct {
	aiConfig    *ai.Config
	provider    ai.AIProvider
	backendOpts []postgres.Option
	cacheDir    string
	cacheTTL    time.Duration
	migrate     bool
}

// WithAIConfig sets the AI configuration. Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) Option {
	return func(o *vaultOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of building one from the AI configuration.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *vaultOptions) {
		o.provider = provider
	}
}

// WithBackendOptions passes options to the store backend.
func WithBackendOptions(opts ...postgres.Option) Option {
	return func(o *vaultOptions) {
		o.backendOpts = append(o.backendOpts, opts...)
	}
}

// WithCacheDir enables the local fact cache and re-embedding checkpoints,
// stored in a BadgerDB database under dir. Cached facts expire after ttl;
// zero keeps them forever.
func WithCacheDir(dir string, ttl time.Duration) Option {
	return func(o *vaultOptions) {
		o.cacheDir = dir
		o.cacheTTL = ttl
	}
}

// WithMigrate runs schema migration when the vault opens.
func WithMigrate() Option {
	return func(o *vaultOptions) {
		o.migrate = true
	}
}

// Open connects to the PostgreSQL database at dsn.
func Open(ctx context.Context, dsn string, opts ...Option) (*Vault, error) {
	options := applyOptions(opts)
	backendOpts := options.backendOpts
	if options.provider == nil && options.aiConfig.Mode == ai.ModePgai && options.aiConfig.APIKey != "" {
		backendOpts = append([]postgres.Option{postgres.WithSessionSetting(APIKeySetting, options.aiConfig.APIKey)}, backendOpts...)
	}

	backend, err := postgres.Open(dsn, backendOpts...)
	if err != nil {
		return nil, err
	}
	return newVault(ctx, backend, options)
}

// OpenMemory opens a vault on an in-memory SQLite store, for tests and demos.
// pgai mode is unavailable; supply a provider or use openai mode.
func OpenMemory(ctx context.Context, opts ...Option) (*Vault, error) {
	options := applyOptions(opts)
	options.migrate = true

	backend, err := postgres.OpenMemory(options.backendOpts...)
	if err != nil {
		return nil, err
	}
	return newVault(ctx, backend, options)
}

func applyOptions(opts []Option) *vaultOptions {
	options := &vaultOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.aiConfig == nil {
		options.aiConfig = ai.DefaultConfig()
	}
	return options
}

func newVault(ctx context.Context, backend *postgres.Backend, options *vaultOptions) (vault *Vault, err error) {
	logger := slog.Default().With("component", "vault")
	v := &Vault{
		backend:  backend,
		aiConfig: options.aiConfig,
		logger:   logger,
	}
	defer func() {
		if err != nil {
			v.Close()
		}
	}()

	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	if options.migrate {
		if err := backend.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	v.provider = options.provider
	if v.provider == nil {
		v.provider, err = newProvider(backend, options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	var docOpts []postgres.DocumentOption
	if inline, ok := v.provider.Embedder().(ai.InlineEmbedder); ok {
		docOpts = append(docOpts, postgres.WithInlineEmbedder(inline))
	}
	v.documents = postgres.NewDocumentRepository(backend, docOpts...)
	v.tags = postgres.NewTagRepository(backend)
	v.chunks = postgres.NewChunkRepository(backend)

	if options.cacheDir != "" {
		v.local, err = badger.OpenBackend(options.cacheDir, false)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		v.cache = badger.NewFactCache(v.local,
			badger.WithNamespace(options.aiConfig.ChatModel),
			badger.WithTTL(options.cacheTTL))
		v.checkpoints = badger.NewCheckpointRepository(v.local)
	}

	logger.Info("vault opened",
		"mode", options.aiConfig.Mode,
		"chatModel", options.aiConfig.ChatModel,
		"embeddingModel", options.aiConfig.EmbeddingModel,
		"cache", options.cacheDir != "")
	return v, nil
}

func newProvider(backend *postgres.Backend, config *ai.Config) (ai.AIProvider, error) {
	switch config.Mode {
	case ai.ModePgai:
		if !backend.IsPostgres() {
			return nil, ErrPgaiRequiresPostgres
		}
		return pgai.NewProvider(backend, config)
	case ai.ModeOpenAI:
		return openai.NewProvider(config)
	default:
		return nil, fmt.Errorf("unknown ai mode %q", config.Mode)
	}
}

// Close releases the provider, the local cache and the connection pool.
func (v *Vault) Close() error {
	if v.provider != nil {
		if err := v.provider.Close(); err != nil {
			v.logger.Error("error closing AI provider", "err", err)
		}
	}

	if v.local != nil {
		if _, err := v.local.CollectGarbage(0.5); err != nil {
			v.logger.Warn("cache garbage collection failed", "err", err)
		}
		if err := v.local.Close(); err != nil {
			v.logger.Error("error closing cache", "err", err)
		}
	}

	if err := v.backend.Close(); err != nil {
		v.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Migrate creates or updates the schema.
func (v *Vault) Migrate(ctx context.Context) error {
	return v.backend.Migrate(ctx)
}

// Backend returns the store backend.
func (v *Vault) Backend() *postgres.Backend {
	return v.backend
}

// Documents returns the document repository.
func (v *Vault) Documents() storage.DocumentRepository {
	return v.documents
}

// Tags returns the tag repository.
func (v *Vault) Tags() storage.TagRepository {
	return v.tags
}

// Chunks returns the chunk repository.
func (v *Vault) Chunks() storage.ChunkRepository {
	return v.chunks
}

// Provider returns the AI provider.
func (v *Vault) Provider() ai.AIProvider {
	return v.provider
}

// NewPipeline creates an ingestion pipeline. The fact cache is attached when
// the vault has one; opts may override it.
func (v *Vault) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if v.cache != nil {
		opts = append([]ingestion.Option{ingestion.WithFactCache(v.cache)}, opts...)
	}
	chat := v.provider.ChatCompleter()
	return ingestion.NewPipeline(
		v.documents,
		v.tags,
		ai.NewFactClient(chat, v.aiConfig.Retry),
		ai.NewTagClient(chat, v.aiConfig.Retry),
		v.provider.Embedder(),
		opts...,
	)
}

// NewSearcher creates a searcher over stored facts.
func (v *Vault) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(v.chunks, v.provider.Embedder(), opts...)
}

// NewReembedder creates a reembedder that rewrites every chunk vector with
// the current embedding model. Runs are resumable when the vault has a cache.
func (v *Vault) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	var opts []reembed.Option
	if v.checkpoints != nil {
		opts = append(opts, reembed.WithCheckpointStore(v.checkpoints))
	}
	return reembed.NewReembedder(v.chunks, v.provider.Embedder(), config, progress, opts...)
}
