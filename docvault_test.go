package docvault

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/ai/mock"
	"github.com/poiesic/docvault/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestChat answers fact prompts with one fact per window and tag prompts
// with the finance tag.
func newTestChat() *mock.MockChatCompleter {
	chat := mock.NewMockChatCompleter()
	chat.CompleteFunc = func(ctx context.Context, systemPrompt, userMessage string) (string, error) {
		if systemPrompt == ai.FactExtractionPrompt {
			return `{"facts": ["Acme revenue grew 12% in 2024."]}`, nil
		}
		return `{"tags": ["finance"]}`, nil
	}
	return chat
}

func factCalls(chat *mock.MockChatCompleter) int {
	n := 0
	for _, call := range chat.Calls() {
		if call.SystemPrompt == ai.FactExtractionPrompt {
			n++
		}
	}
	return n
}

func newTestVault(t *testing.T, chat *mock.MockChatCompleter, opts ...Option) *Vault {
	t.Helper()
	provider := mock.NewMockProviderWithServices(chat, mock.NewMockEmbedder())
	opts = append([]Option{WithProvider(provider)}, opts...)

	vault, err := OpenMemory(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { vault.Close() })
	return vault
}

func TestOpenMemory(t *testing.T) {
	vault := newTestVault(t, newTestChat())

	assert.NotNil(t, vault.Backend())
	assert.NotNil(t, vault.Documents())
	assert.NotNil(t, vault.Tags())
	assert.NotNil(t, vault.Chunks())
	assert.NotNil(t, vault.Provider())
}

func TestOpenMemory_PgaiModeRequiresPostgres(t *testing.T) {
	_, err := OpenMemory(context.Background(), WithAIConfig(ai.NewConfig(ai.WithMode(ai.ModePgai))))
	assert.ErrorIs(t, err, ErrPgaiRequiresPostgres)
}

func TestOpenMemory_OpenAIMode(t *testing.T) {
	config := ai.NewConfig(ai.WithMode(ai.ModeOpenAI), ai.WithHost("http://localhost:1"), ai.WithAPIKey("sk-test"))
	vault, err := OpenMemory(context.Background(), WithAIConfig(config))
	require.NoError(t, err)
	defer vault.Close()

	_, inline := vault.Provider().Embedder().(ai.InlineEmbedder)
	assert.False(t, inline)
}

func TestOpenMemory_InvalidConfig(t *testing.T) {
	config := ai.NewConfig(ai.WithMode("bedrock"))
	_, err := OpenMemory(context.Background(), WithAIConfig(config))
	assert.Error(t, err)
}

func TestVault_UploadSearchReembed(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, newTestChat())

	_, err := vault.Tags().AddTags(ctx, "Finance", "Legal")
	require.NoError(t, err)

	pipeline, err := vault.NewPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.UploadText(ctx, "annual-report.pdf", "Acme Corp had a strong year.")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, []string{"Finance"}, result.Document.Tags)

	searcher, err := vault.NewSearcher()
	require.NoError(t, err)
	hits, err := searcher.Search(ctx, "Acme revenue grew 12% in 2024.", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "annual-report.pdf", hits[0].DocumentName)

	var out bytes.Buffer
	require.NoError(t, vault.NewReembedder(nil, &out).Run(ctx))
	assert.Contains(t, out.String(), "Processed 1 chunks")
}

func TestVault_FactCache(t *testing.T) {
	ctx := context.Background()
	chat := newTestChat()
	vault := newTestVault(t, chat, WithCacheDir(t.TempDir(), 0))

	pipeline, err := vault.NewPipeline(ingestion.WithWindowSize(10))
	require.NoError(t, err)
	defer pipeline.Release()

	text := strings.Repeat("a", 10) + strings.Repeat("b", 10) + strings.Repeat("c", 10)
	_, err = pipeline.UploadText(ctx, "first.pdf", text)
	require.NoError(t, err)
	assert.Equal(t, 3, factCalls(chat))

	_, err = pipeline.UploadText(ctx, "second.pdf", text)
	require.NoError(t, err)
	assert.Equal(t, 3, factCalls(chat), "second upload is served from the cache")
}
