package mock

import (
	"context"
	"sync"
)

// ChatCall records the arguments of one Complete call.
type ChatCall struct {
	SystemPrompt string
	UserMessage  string
}

// MockChatCompleter is a test double for ai.ChatCompleter.
// It is safe for concurrent use.
type MockChatCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns an empty facts payload.
	CompleteFunc func(ctx context.Context, systemPrompt, userMessage string) (string, error)

	mu    sync.Mutex
	calls []ChatCall
}

// NewMockChatCompleter creates a mock chat completer with default behavior.
func NewMockChatCompleter() *MockChatCompleter {
	return &MockChatCompleter{}
}

// NewScriptedChatCompleter returns a mock that answers with the given
// responses in order, one per call. A non-nil error at the same position is
// returned instead of the response. Calls beyond the script repeat the last entry.
func NewScriptedChatCompleter(responses []string, errs []error) *MockChatCompleter {
	m := &MockChatCompleter{}
	m.CompleteFunc = func(ctx context.Context, systemPrompt, userMessage string) (string, error) {
		n := m.CallCount() - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}
		if n < len(errs) && errs[n] != nil {
			return "", errs[n]
		}
		if n < 0 {
			return "", nil
		}
		return responses[n], nil
	}
	return m
}

// Complete records the call and returns the injected or default response.
func (m *MockChatCompleter) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ChatCall{SystemPrompt: systemPrompt, UserMessage: userMessage})
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, systemPrompt, userMessage)
	}
	return `{"facts": []}`, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockChatCompleter) Calls() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatCall(nil), m.calls...)
}

// Reset clears the recorded calls and the injected behavior.
func (m *MockChatCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteFunc = nil
}
