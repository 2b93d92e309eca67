package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = ai.RetryPolicy{MaxRetries: 5, Delay: time.Millisecond}

func TestFactClientExtractFacts(t *testing.T) {
	t.Run("returns parsed facts", func(t *testing.T) {
		chat := mock.NewScriptedChatCompleter([]string{`{"facts": ["f1", "f2"]}`}, nil)
		client := ai.NewFactClient(chat, fastPolicy)

		facts, err := client.ExtractFacts(context.Background(), 0, "window text")
		require.NoError(t, err)
		assert.Equal(t, []string{"f1", "f2"}, facts)
		assert.Equal(t, 1, chat.CallCount())

		call := chat.Calls()[0]
		assert.Equal(t, ai.FactExtractionPrompt, call.SystemPrompt)
		assert.Equal(t, "window text", call.UserMessage)
	})

	t.Run("succeeds on kth attempt with exactly k calls", func(t *testing.T) {
		for k := 1; k <= 6; k++ {
			responses := make([]string, k)
			for i := 0; i < k-1; i++ {
				if i%2 == 0 {
					responses[i] = "not json"
				} else {
					responses[i] = `{"facts": "wrong shape"}`
				}
			}
			responses[k-1] = `{"facts": ["ok"]}`

			chat := mock.NewScriptedChatCompleter(responses, nil)
			facts, err := ai.NewFactClient(chat, fastPolicy).ExtractFacts(context.Background(), 3, "w")
			require.NoError(t, err, "k=%d", k)
			assert.Equal(t, []string{"ok"}, facts)
			assert.Equal(t, k, chat.CallCount(), "k=%d", k)
		}
	})

	t.Run("transport errors are retried", func(t *testing.T) {
		failure := errors.New("connection reset")
		chat := mock.NewScriptedChatCompleter(
			[]string{"", `{"facts": ["a"]}`},
			[]error{failure, nil},
		)
		facts, err := ai.NewFactClient(chat, fastPolicy).ExtractFacts(context.Background(), 0, "w")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, facts)
		assert.Equal(t, 2, chat.CallCount())
	})

	t.Run("fails after six calls", func(t *testing.T) {
		chat := mock.NewScriptedChatCompleter([]string{"garbage"}, nil)
		_, err := ai.NewFactClient(chat, fastPolicy).ExtractFacts(context.Background(), 7, "w")
		require.Error(t, err)
		assert.Equal(t, 6, chat.CallCount())
		assert.ErrorIs(t, err, ai.ErrRetriesExhausted)
		assert.ErrorIs(t, err, ai.ErrMalformedPayload)
		assert.Contains(t, err.Error(), "window 7")
	})
}
