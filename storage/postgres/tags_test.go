package postgres

import (
	"context"
	"testing"

	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("add and list", func(t *testing.T) {
		repo := NewTagRepository(newTestBackend(t))

		added, err := repo.AddTags(ctx, "Finance", " Legal ")
		require.NoError(t, err)
		require.Len(t, added, 2)
		assert.NotZero(t, added[0].Id)
		assert.Equal(t, "Legal", added[1].Name)

		tags, err := repo.ListTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, added, tags)
	})

	t.Run("empty catalog", func(t *testing.T) {
		repo := NewTagRepository(newTestBackend(t))
		tags, err := repo.ListTags(ctx)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("rejects case-folded duplicate of existing tag", func(t *testing.T) {
		repo := NewTagRepository(newTestBackend(t))
		_, err := repo.AddTags(ctx, "Finance")
		require.NoError(t, err)

		_, err = repo.AddTags(ctx, "FINANCE")
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		tags, err := repo.ListTags(ctx)
		require.NoError(t, err)
		assert.Len(t, tags, 1)
	})

	t.Run("rejects duplicate within one call", func(t *testing.T) {
		repo := NewTagRepository(newTestBackend(t))
		_, err := repo.AddTags(ctx, "Legal", "legal")
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		repo := NewTagRepository(newTestBackend(t))
		_, err := repo.AddTags(ctx, "  ")
		assert.ErrorIs(t, err, core.ErrEmptyName)
	})

	t.Run("unique index backs the check", func(t *testing.T) {
		backend := newTestBackend(t)
		require.NoError(t, backend.DB().Create(&tagRow{Name: "Finance"}).Error)
		err := backend.DB().Create(&tagRow{Name: "finance"}).Error
		assert.ErrorIs(t, translateError(err), storage.ErrDuplicateKey)
	})

	t.Run("delete", func(t *testing.T) {
		repo := NewTagRepository(newTestBackend(t))
		added, err := repo.AddTags(ctx, "Finance")
		require.NoError(t, err)

		deleted, err := repo.DeleteTag(ctx, added[0].Id)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeleteTag(ctx, added[0].Id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
