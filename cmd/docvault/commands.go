package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/ingestion"
	"github.com/poiesic/docvault/reembed"
	"github.com/poiesic/docvault/search"
	"github.com/poiesic/docvault/server"
	"github.com/urfave/cli/v2"
)

func migrateCommand(c *cli.Context) error {
	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	if err := vault.Migrate(c.Context); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Schema is up to date.")
	return nil
}

func serveCommand(c *cli.Context) error {
	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	pipeline, err := vault.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	searcher, err := vault.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	config := server.DefaultConfig()
	config.Addr = c.String("addr")
	config.MaxUploadBytes = c.Int64("max-upload-bytes")
	if origins := c.StringSlice("cors-origin"); len(origins) > 0 {
		config.AllowOrigins = origins
	}

	srv := server.New(config, vault.Documents(), vault.Tags(), pipeline, searcher)
	return srv.ListenAndServe(c.Context)
}

func uploadCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("at least one PDF file is required")
	}
	name := c.String("name")
	if name != "" && len(paths) > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}

	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	opts := []ingestion.Option{ingestion.WithStageObserver(func(document string, stage ingestion.Stage) {
		fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", document, stage)
	})}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}
	pipeline, err := vault.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docName := name
		if docName == "" {
			docName = filepath.Base(path)
		}

		result, err := pipeline.Upload(c.Context, docName, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Stored %q as document %d with %d facts, tags: %s\n",
			result.Document.Name, result.Document.Id, result.ChunkCount, formatTags(result.Document.Tags))
	}
	return nil
}

func listDocumentsCommand(c *cli.Context) error {
	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	docs, err := vault.Documents().ListDocuments(c.Context)
	if err != nil {
		return err
	}
	return printDocuments(c.App.Writer, docs)
}

func deleteDocumentsCommand(c *cli.Context) error {
	ids, err := parseIDs(c.Args().Slice())
	if err != nil {
		return err
	}

	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	for _, id := range ids {
		deleted, err := vault.Documents().DeleteDocument(c.Context, id)
		if err != nil {
			return err
		}
		if deleted {
			fmt.Fprintf(c.App.Writer, "Deleted document %d\n", id)
		} else {
			fmt.Fprintf(c.App.Writer, "Document %d does not exist\n", id)
		}
	}
	return nil
}

func listTagsCommand(c *cli.Context) error {
	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	tags, err := vault.Tags().ListTags(c.Context)
	if err != nil {
		return err
	}
	return printTags(c.App.Writer, tags)
}

func addTagsCommand(c *cli.Context) error {
	names := c.Args().Slice()
	if len(names) == 0 {
		return fmt.Errorf("at least one tag name is required")
	}

	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	tags, err := vault.Tags().AddTags(c.Context, names...)
	if err != nil {
		return err
	}
	return printTags(c.App.Writer, tags)
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return search.ErrEmptyQuery
	}

	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	searcher, err := vault.NewSearcher(search.WithMinScore(float32(c.Float64("min-score"))))
	if err != nil {
		return err
	}
	results, err := searcher.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}
	printResults(c.App.Writer, results)
	return nil
}

func reembedCommand(c *cli.Context) error {
	config, err := reembedConfig(c)
	if err != nil {
		return err
	}

	vault, err := openVault(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer vault.Close()

	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintf(c.App.ErrWriter, "AI mode: %s\n\n", c.String("ai-mode"))

	if err := vault.NewReembedder(config, c.App.ErrWriter).Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func reembedConfig(c *cli.Context) (*reembed.Config, error) {
	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	return config, nil
}

func parseIDs(args []string) ([]core.ID, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one document id is required")
	}
	ids := make([]core.ID, len(args))
	for i, arg := range args {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid document id %q", arg)
		}
		ids[i] = core.ID(n)
	}
	return ids, nil
}
