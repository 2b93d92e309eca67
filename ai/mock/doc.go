// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.ChatCompleter, ai.Embedder
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// a model provider and enable controlled, deterministic behavior. All mocks are
// safe for concurrent use, since the ingestion pipeline calls them from many
// goroutines at once.
//
// # Usage in Tests
//
//	// Scripted responses: fail twice, then succeed
//	chat := mock.NewScriptedChatCompleter(
//	    []string{"", "", `{"facts": ["a"]}`},
//	    []error{errTimeout, errTimeout, nil},
//	)
//	facts, err := ai.NewFactClient(chat, policy).ExtractFacts(ctx, 0, "text")
//	count := chat.CallCount() // 3
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("offline")
//	}
//
// # Default Behavior
//
//   - MockChatCompleter: Returns {"facts": []}
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockProvider: Aggregates mock chat completer and embedder
package mock
