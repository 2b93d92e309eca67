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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/reembed"
	"github.com/poiesic/docvault/server"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: could not load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "docvault",
		Usage:    "Store PDF documents as searchable facts",
		Flags:    globalFlags(),
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Action: migrateCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   server.DefaultAddr,
						EnvVars: []string{"DOCVAULT_ADDR"},
					},
					&cli.StringSliceFlag{
						Name:    "cors-origin",
						Usage:   "Origin allowed to call the API (repeatable)",
						EnvVars: []string{"DOCVAULT_CORS_ORIGINS"},
					},
					&cli.Int64Flag{
						Name:  "max-upload-bytes",
						Usage: "Largest accepted PDF upload",
						Value: server.DefaultMaxUploadBytes,
					},
				},
			},
			{
				Name:      "upload",
				Usage:     "Extract facts from PDF files and store them",
				ArgsUsage: "FILE...",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name (single file only, defaults to the file name)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent fact extraction calls per document (default: CPU count)",
					},
				},
			},
			{
				Name:  "documents",
				Usage: "Manage stored documents",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List documents with their tags",
						Action: listDocumentsCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete documents and their facts",
						ArgsUsage: "ID...",
						Action:    deleteDocumentsCommand,
					},
				},
			},
			{
				Name:  "tags",
				Usage: "Manage the tag catalog",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List catalog tags",
						Action: listTagsCommand,
					},
					{
						Name:      "add",
						Usage:     "Add tags to the catalog",
						ArgsUsage: "NAME...",
						Action:    addTagsCommand,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find facts similar to a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Drop results below this cosine similarity",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute every fact embedding with the configured model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "PostgreSQL connection string",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "db-host",
			Usage:   "PostgreSQL host, used when database-url is empty",
			Value:   "localhost",
			EnvVars: []string{"POSTGRES_DB_HOST"},
		},
		&cli.StringFlag{
			Name:    "db-port",
			Usage:   "PostgreSQL port",
			Value:   "5432",
			EnvVars: []string{"POSTGRES_DB_PORT"},
		},
		&cli.StringFlag{
			Name:    "db-user",
			Usage:   "PostgreSQL user",
			EnvVars: []string{"POSTGRES_DB_USER"},
		},
		&cli.StringFlag{
			Name:    "db-password",
			Usage:   "PostgreSQL password",
			EnvVars: []string{"POSTGRES_DB_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "db-name",
			Usage:   "PostgreSQL database name",
			EnvVars: []string{"POSTGRES_DB_NAME"},
		},
		&cli.StringFlag{
			Name:    "ai-mode",
			Usage:   "Model access: pgai (through the database) or openai (direct HTTP)",
			Value:   string(defaults.Mode),
			EnvVars: []string{"DOCVAULT_AI_MODE"},
		},
		&cli.StringFlag{
			Name:    "ai-host",
			Usage:   "OpenAI-compatible API base URL (openai mode)",
			Value:   defaults.Host,
			EnvVars: []string{"OPENAI_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			Usage:   "API key for the model provider",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Usage:   "Model used for fact extraction and tag matching",
			Value:   defaults.ChatModel,
			EnvVars: []string{"DOCVAULT_CHAT_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Model used for fact embeddings",
			Value:   defaults.EmbeddingModel,
			EnvVars: []string{"DOCVAULT_EMBEDDING_MODEL"},
		},
		&cli.IntFlag{
			Name:  "ai-retries",
			Usage: "Retries for a failed fact extraction or tag matching call",
			Value: defaults.Retry.MaxRetries,
		},
		&cli.StringFlag{
			Name:    "cache-dir",
			Usage:   "Directory for the local fact cache and reembed checkpoints (disabled when empty)",
			EnvVars: []string{"DOCVAULT_CACHE_DIR"},
		},
		&cli.DurationFlag{
			Name:  "cache-ttl",
			Usage: "Lifetime of cached facts, 0 keeps them forever",
			Value: 30 * 24 * time.Hour,
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
