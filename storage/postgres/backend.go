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

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	// IndexDiskANN is the pgvectorscale StreamingDiskANN index method.
	IndexDiskANN = "diskann"
	// IndexHNSW is pgvector's HNSW index method.
	IndexHNSW = "hnsw"
	// IndexIVFFlat is pgvector's IVFFlat index method.
	IndexIVFFlat = "ivfflat"

	dialectPostgres = "postgres"
	memoryDSN       = "file::memory:?_foreign_keys=on"
)

// Setting is a run-time configuration parameter applied to every session
// the backend hands out.
type Setting struct {
	Name  string
	Value string
}

// Backend owns the connection pool and provides transactional and
// session-scoped access to it.
type Backend struct {
	db           *gorm.DB
	settings     []Setting
	indexMethod  string
	queryRescore int
	extensions   []string
	maxOpenConns int
	logger       *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithSessionSetting adds a run-time parameter (for example ai.openai_api_key)
// that is set on the connection before any work runs on it.
// Settings are only applied on PostgreSQL.
func WithSessionSetting(name, value string) Option {
	return func(b *Backend) {
		b.settings = append(b.settings, Setting{Name: name, Value: value})
	}
}

// WithIndexMethod sets the access method of the embedding index.
// Default: IndexDiskANN
func WithIndexMethod(method string) Option {
	return func(b *Backend) {
		b.indexMethod = strings.ToLower(method)
	}
}

// WithQueryRescore sets diskann.query_rescore for similarity searches.
// Zero leaves the server default.
func WithQueryRescore(n int) Option {
	return func(b *Backend) {
		b.queryRescore = n
	}
}

// WithExtensions replaces the extensions Migrate creates.
func WithExtensions(names ...string) Option {
	return func(b *Backend) {
		b.extensions = names
	}
}

// WithMaxOpenConns limits the size of the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(b *Backend) {
		b.maxOpenConns = n
	}
}

// WithLogger sets the logger used by the backend and by gorm.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// gormLogWriter routes gorm's log output to slog.
type gormLogWriter struct {
	logger *slog.Logger
}

var _ gormLogger.Writer = (*gormLogWriter)(nil)

func (w *gormLogWriter) Printf(msg string, items ...any) {
	w.logger.Warn(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

// Open connects to PostgreSQL using the given DSN.
func Open(dsn string, opts ...Option) (*Backend, error) {
	return OpenDialector(postgres.Open(dsn), opts...)
}

// OpenMemory opens an in-memory SQLite database with foreign keys enforced.
// It supports everything except session settings, extensions and the vector
// index, which makes it suitable for tests.
func OpenMemory(opts ...Option) (*Backend, error) {
	opts = append([]Option{WithMaxOpenConns(1)}, opts...)
	b, err := OpenDialector(sqlite.Open(memoryDSN), opts...)
	if err != nil {
		return nil, err
	}
	if err := b.db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		b.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return b, nil
}

// OpenDialector opens a backend on any gorm dialector.
func OpenDialector(dialector gorm.Dialector, opts ...Option) (*Backend, error) {
	b := &Backend{
		indexMethod: IndexDiskANN,
		extensions:  []string{"vector", "vectorscale", "ai"},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "postgres-backend")

	gormLog := gormLogger.New(
		&gormLogWriter{logger: b.logger},
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if b.maxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(b.maxOpenConns)
	}

	b.db = db
	b.logger.Debug("database opened", "dialect", db.Dialector.Name())
	return b, nil
}

// DB returns the underlying gorm handle.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// IsPostgres reports whether the backend talks to PostgreSQL.
func (b *Backend) IsPostgres() bool {
	return b.db.Dialector.Name() == dialectPostgres
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates extensions, tables and indexes. It is safe to run repeatedly.
func (b *Backend) Migrate(ctx context.Context) error {
	db := b.db.WithContext(ctx)

	if b.IsPostgres() {
		for _, ext := range b.extensions {
			if err := db.Exec(fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %q CASCADE", ext)).Error; err != nil {
				return fmt.Errorf("failed to enable %s extension: %w", ext, err)
			}
		}
	}

	if err := db.AutoMigrate(&documentRow{}, &tagRow{}, &documentTagRow{}, &chunkRow{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS tags_name_lower_idx ON tags (lower(name))").Error; err != nil {
		return fmt.Errorf("failed to create tag name index: %w", err)
	}

	if b.IsPostgres() {
		switch b.indexMethod {
		case IndexDiskANN, IndexHNSW, IndexIVFFlat:
		default:
			return fmt.Errorf("%w: unsupported index method %q", errInvalidOption, b.indexMethod)
		}
		stmt := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS document_information_chunks_embedding_idx ON document_information_chunks USING %s (embedding vector_cosine_ops)",
			b.indexMethod)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create embedding index: %w", err)
		}
	}

	b.logger.Info("schema migrated", "index", b.indexMethod)
	return nil
}

// WithTransaction runs fn in a transaction. Session settings are applied
// local to the transaction first. If fn returns an error, the transaction
// is rolled back.
func (b *Backend) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := b.applySettings(tx, true); err != nil {
			return err
		}
		return fn(tx)
	})
}

// WithSession runs fn on a single pooled connection with the session
// settings applied, and clears them again before the connection is returned
// to the pool. No transaction is opened.
func (b *Backend) WithSession(ctx context.Context, fn func(conn *gorm.DB) error) error {
	return b.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := b.applySettings(conn, false); err != nil {
			return err
		}
		// The reset must run even when ctx is already cancelled, or the
		// settings would stay on the pooled connection.
		defer b.resetSettings(conn.WithContext(context.WithoutCancel(ctx)))
		return fn(conn)
	})
}

func (b *Backend) applySettings(db *gorm.DB, local bool) error {
	if !b.IsPostgres() {
		return nil
	}
	for _, s := range b.settings {
		if err := db.Exec("SELECT set_config(?, ?, ?)", s.Name, s.Value, local).Error; err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", s.Name, err)
		}
	}
	return nil
}

func (b *Backend) resetSettings(db *gorm.DB) {
	if !b.IsPostgres() {
		return
	}
	for _, s := range b.settings {
		if err := db.Exec("SELECT set_config(?, '', false)", s.Name).Error; err != nil {
			b.logger.Warn("failed to reset setting", "setting", s.Name, "err", err)
		}
	}
}
