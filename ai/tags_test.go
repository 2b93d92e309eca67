package ai_test

import (
	"context"
	"testing"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/ai/mock"
	"github.com/poiesic/docvault/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []*core.Tag {
	return []*core.Tag{
		{Id: 11, Name: "Finance"},
		{Id: 12, Name: "Legal"},
	}
}

func TestTagClientMatchTags(t *testing.T) {
	t.Run("resolves case insensitively", func(t *testing.T) {
		chat := mock.NewScriptedChatCompleter([]string{`{"tags": ["finance"]}`}, nil)
		ids, err := ai.NewTagClient(chat, fastPolicy).MatchTags(context.Background(), "quarterly report", testCatalog())
		require.NoError(t, err)
		assert.Equal(t, []core.ID{11}, ids)
		assert.Equal(t, 1, chat.CallCount())
	})

	t.Run("prompt lists lower-cased names", func(t *testing.T) {
		chat := mock.NewScriptedChatCompleter([]string{`{"tags": []}`}, nil)
		ids, err := ai.NewTagClient(chat, fastPolicy).MatchTags(context.Background(), "prefix", testCatalog())
		require.NoError(t, err)
		assert.Empty(t, ids)

		call := chat.Calls()[0]
		assert.Contains(t, call.SystemPrompt, `["finance","legal"]`)
		assert.Equal(t, "prefix", call.UserMessage)
	})

	t.Run("empty catalog makes no call", func(t *testing.T) {
		chat := mock.NewMockChatCompleter()
		ids, err := ai.NewTagClient(chat, fastPolicy).MatchTags(context.Background(), "text", nil)
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
		assert.Equal(t, 0, chat.CallCount())
	})

	t.Run("unknown tag is retried until exhausted", func(t *testing.T) {
		chat := mock.NewScriptedChatCompleter([]string{`{"tags": ["finance", "sports"]}`}, nil)
		_, err := ai.NewTagClient(chat, fastPolicy).MatchTags(context.Background(), "text", testCatalog())
		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrUnknownTag)
		assert.ErrorIs(t, err, ai.ErrRetriesExhausted)
		assert.Equal(t, 6, chat.CallCount())
	})

	t.Run("unknown tag then valid answer", func(t *testing.T) {
		chat := mock.NewScriptedChatCompleter([]string{
			`{"tags": ["sports"]}`,
			`{"tags": ["LEGAL"]}`,
		}, nil)
		ids, err := ai.NewTagClient(chat, fastPolicy).MatchTags(context.Background(), "text", testCatalog())
		require.NoError(t, err)
		assert.Equal(t, []core.ID{12}, ids)
		assert.Equal(t, 2, chat.CallCount())
	})

	t.Run("duplicates collapse in first mention order", func(t *testing.T) {
		chat := mock.NewScriptedChatCompleter([]string{`{"tags": ["legal", "Finance", "LEGAL"]}`}, nil)
		ids, err := ai.NewTagClient(chat, fastPolicy).MatchTags(context.Background(), "text", testCatalog())
		require.NoError(t, err)
		assert.Equal(t, []core.ID{12, 11}, ids)
	})

	t.Run("ambiguous catalog is not retried", func(t *testing.T) {
		chat := mock.NewMockChatCompleter()
		catalog := []*core.Tag{{Id: 1, Name: "Finance"}, {Id: 2, Name: "finance"}}
		_, err := ai.NewTagClient(chat, fastPolicy).MatchTags(context.Background(), "text", catalog)
		require.ErrorIs(t, err, ai.ErrAmbiguousCatalog)
		assert.Equal(t, 0, chat.CallCount())
	})
}
