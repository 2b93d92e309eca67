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

package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/docvault/core"
)

// Mode selects how chat completions and embeddings are produced.
type Mode string

const (
	// ModePgai calls the model through the database's ai extension functions.
	ModePgai Mode = "pgai"
	// ModeOpenAI calls an OpenAI-compatible HTTP API directly.
	ModeOpenAI Mode = "openai"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Mode selects the provider implementation. Default: ModePgai
	Mode Mode

	// Host is the base URL of the OpenAI-compatible API (ModeOpenAI only).
	// Example: "https://api.openai.com/v1"
	Host string

	// APIKey is the credential passed to the model provider.
	// In ModePgai it is installed as the ai.openai_api_key session setting.
	APIKey string

	// ChatModel is the model identifier used for fact extraction and tag matching.
	ChatModel string

	// EmbeddingModel is the model identifier used for chunk embeddings.
	EmbeddingModel string

	// Dimensions is the size of the vectors the embedding model returns.
	Dimensions int

	// Retry governs fact extraction and tag matching attempts.
	Retry RetryPolicy
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithMode sets the provider mode.
func WithMode(mode Mode) ConfigOption {
	return func(c *Config) {
		c.Mode = mode
	}
}

// WithHost sets the API host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithChatModel sets the chat completion model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithRetryPolicy sets the retry policy for LLM calls.
func WithRetryPolicy(maxRetries int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.Retry = RetryPolicy{MaxRetries: maxRetries, Delay: delay}
	}
}

// DefaultConfig returns a Config that uses the database's ai extension with
// the OpenAI models the schema was sized for.
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModePgai,
		Host:           "https://api.openai.com/v1",
		ChatModel:      "gpt-4o-mini-2024-07-18",
		EmbeddingModel: "text-embedding-3-small",
		Dimensions:     core.EmbeddingDimensions,
		Retry:          DefaultRetryPolicy(),
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithMode(ModeOpenAI),
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which OpenAI-compatible APIs require.
func (c *Config) Normalize() {
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Mode {
	case ModePgai:
	case ModeOpenAI:
		if c.Host == "" {
			return errors.New("ai config: Host is required in openai mode")
		}
	default:
		return fmt.Errorf("ai config: unknown mode %q", c.Mode)
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimensions != core.EmbeddingDimensions {
		return fmt.Errorf("ai config: Dimensions must be %d", core.EmbeddingDimensions)
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("ai config: MaxRetries cannot be negative")
	}
	if c.Retry.Delay < 0 {
		return errors.New("ai config: retry Delay cannot be negative")
	}
	return nil
}
