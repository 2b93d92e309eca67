package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	backend, err := NewMemoryBackend(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestOpenMemory(t *testing.T) {
	backend := newTestBackend(t)

	assert.False(t, backend.IsPostgres())
	assert.NotNil(t, backend.DB())

	var fk int
	require.NoError(t, backend.DB().Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestMigrateIsRepeatable(t *testing.T) {
	backend := newTestBackend(t)
	require.NoError(t, backend.Migrate(context.Background()))

	for _, table := range []string{"documents", "tags", "document_tags", "document_information_chunks"} {
		assert.True(t, backend.DB().Migrator().HasTable(table), table)
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	err := backend.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&documentRow{Name: "draft"}).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, backend.DB().Model(&documentRow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithSession(t *testing.T) {
	backend := newTestBackend(t, WithSessionSetting("ai.openai_api_key", "sk-test"))

	var one int
	err := backend.WithSession(context.Background(), func(conn *gorm.DB) error {
		return conn.Raw("SELECT 1").Scan(&one).Error
	})
	require.NoError(t, err)
	assert.Equal(t, 1, one)
}

func TestSessionSettingsOnPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}

	backend, err := Open(dsn, WithSessionSetting("docvault.test_key", "secret"))
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	var inside string
	err = backend.WithSession(ctx, func(conn *gorm.DB) error {
		return conn.Raw("SELECT current_setting('docvault.test_key', true)").Scan(&inside).Error
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", inside)

	var inTx string
	err = backend.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Raw("SELECT current_setting('docvault.test_key', true)").Scan(&inTx).Error
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", inTx)
}

func TestSessionSettingsResetAfterCancel(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}

	// One pooled connection, so the follow-up query reuses the session.
	backend, err := Open(dsn, WithMaxOpenConns(1), WithSessionSetting("docvault.test_key", "secret"))
	require.NoError(t, err)
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	err = backend.WithSession(ctx, func(conn *gorm.DB) error {
		cancel()
		return nil
	})
	require.NoError(t, err)

	var after string
	require.NoError(t, backend.DB().Raw("SELECT current_setting('docvault.test_key', true)").Scan(&after).Error)
	assert.Empty(t, after)
}

func TestMigrateRejectsUnknownIndexMethod(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}

	backend, err := Open(dsn, WithIndexMethod("btree"), WithExtensions("vector"))
	require.NoError(t, err)
	defer backend.Close()

	err = backend.Migrate(context.Background())
	assert.ErrorIs(t, err, errInvalidOption)
}
