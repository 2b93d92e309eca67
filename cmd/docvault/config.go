package main

import (
	"errors"
	"net"
	"net/url"

	"github.com/poiesic/docvault"
	"github.com/poiesic/docvault/ai"
	"github.com/urfave/cli/v2"
)

var errNoDatabase = errors.New("no database configured: set --database-url (DATABASE_URL) or POSTGRES_DB_NAME")

// databaseURL returns --database-url, or a DSN assembled from the
// POSTGRES_DB_* flags.
func databaseURL(c *cli.Context) (string, error) {
	if dsn := c.String("database-url"); dsn != "" {
		return dsn, nil
	}
	if c.String("db-name") == "" {
		return "", errNoDatabase
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.String("db-host"), c.String("db-port")),
		Path:   "/" + c.String("db-name"),
	}
	if user := c.String("db-user"); user != "" {
		if password := c.String("db-password"); password != "" {
			u.User = url.UserPassword(user, password)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String(), nil
}

func aiConfig(c *cli.Context) *ai.Config {
	config := ai.NewConfig(
		ai.WithMode(ai.Mode(c.String("ai-mode"))),
		ai.WithHost(c.String("ai-host")),
		ai.WithAPIKey(c.String("openai-api-key")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	config.Retry.MaxRetries = c.Int("ai-retries")
	return config
}

func vaultOptions(c *cli.Context) []docvault.Option {
	opts := []docvault.Option{docvault.WithAIConfig(aiConfig(c))}
	if dir := c.String("cache-dir"); dir != "" {
		opts = append(opts, docvault.WithCacheDir(dir, c.Duration("cache-ttl")))
	}
	return opts
}

func openVault(c *cli.Context, extra ...docvault.Option) (*docvault.Vault, error) {
	dsn, err := databaseURL(c)
	if err != nil {
		return nil, err
	}
	return docvault.Open(c.Context, dsn, append(vaultOptions(c), extra...)...)
}
