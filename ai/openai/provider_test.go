package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves the two endpoints the provider uses. Embeddings have
// dims values: the input index followed by 0.5s.
func fakeOpenAI(t *testing.T, chatContent string, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			assert.Contains(t, string(body), `"json_object"`)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   "gpt-4o-mini-2024-07-18",
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": chatContent},
					"finish_reason": "stop",
				}},
				"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
			})
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var req struct {
				Input []string `json:"input"`
			}
			_ = json.Unmarshal(body, &req)
			data := make([]map[string]any, len(req.Input))
			for i := range req.Input {
				data[i] = map[string]any{"object": "embedding", "index": i, "embedding": fakeVector(i, dims)}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   data,
				"model":  "text-embedding-3-small",
				"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func fakeVector(i, dims int) []float32 {
	vector := make([]float32, dims)
	for j := range vector {
		vector[j] = 0.5
	}
	if dims > 0 {
		vector[0] = float32(i)
	}
	return vector
}

func TestProvider(t *testing.T) {
	server := fakeOpenAI(t, `{"facts": ["a"]}`, core.EmbeddingDimensions)
	defer server.Close()

	cfg := ai.NewConfig(ai.WithMode(ai.ModeOpenAI), ai.WithHost(server.URL), ai.WithAPIKey("sk-test"))
	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	defer provider.Close()

	t.Run("chat completion", func(t *testing.T) {
		out, err := provider.ChatCompleter().Complete(context.Background(), "system", "user")
		require.NoError(t, err)
		assert.Equal(t, `{"facts": ["a"]}`, out)
	})

	t.Run("single embedding", func(t *testing.T) {
		vec, err := provider.Embedder().EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, fakeVector(0, core.EmbeddingDimensions), vec)
	})

	t.Run("batch keeps input order", func(t *testing.T) {
		vecs, err := provider.Embedder().EmbedTexts(context.Background(), []string{"f1", "f2", "f3"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)
		for i, vec := range vecs {
			assert.Equal(t, float32(i), vec[0])
			assert.Len(t, vec, core.EmbeddingDimensions)
		}
	})

	t.Run("empty batch makes no request", func(t *testing.T) {
		vecs, err := provider.Embedder().EmbedTexts(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
	})
}

func TestEmbedderRejectsWrongDimensions(t *testing.T) {
	server := fakeOpenAI(t, `{}`, 768)
	defer server.Close()

	cfg := ai.NewConfig(ai.WithMode(ai.ModeOpenAI), ai.WithHost(server.URL), ai.WithEmbeddingModel("nomic-embed-text"))
	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "hello")
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "nomic-embed-text")

	_, err = embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestNewProviderInvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithMode(ai.ModeOpenAI), ai.WithChatModel(""))
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}
