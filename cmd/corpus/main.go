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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/export"
	"github.com/poiesic/corpus/ingest"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/badger"
	"github.com/poiesic/corpus/storage/postgres"
)

func main() {
	storeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
		&cli.StringFlag{
			Name:  "db-url",
			Usage: "PostgreSQL connection URL (used instead of --db)",
		},
	}

	app := &cli.App{
		Name:  "corpus",
		Usage: "Content-addressed article archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Read NDJSON articles from stdin and upsert them into the store",
				Action: ingestCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "policy",
						Aliases: []string{"p"},
						Usage:   "Path to a YAML quality policy file",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of concurrent ingest workers",
						Value:   4,
					},
				}, storeFlags...),
			},
			{
				Name:   "export",
				Usage:  "Write all stored articles as a JSON array",
				Action: exportCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file path (defaults to stdout)",
					},
				}, storeFlags...),
			},
			{
				Name:   "list",
				Usage:  "List the most recently updated articles",
				Action: listCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of articles to show",
						Value:   20,
					},
				}, storeFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openRepository selects the backend from the store flags. The cleanup
// function closes the repository and any backend it owns.
func openRepository(ctx context.Context, c *cli.Context) (storage.ArticleRepository, func(), error) {
	dbPath := c.String("db")
	dbURL := c.String("db-url")

	switch {
	case dbPath != "" && dbURL != "":
		return nil, nil, fmt.Errorf("--db and --db-url are mutually exclusive")
	case dbURL != "":
		repo, err := postgres.Open(ctx, dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return repo, func() { repo.Close() }, nil
	case dbPath != "":
		backend, err := badger.OpenBackend(dbPath, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		repo := badger.NewArticleRepository(backend)
		return repo, func() {
			repo.Close()
			backend.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("either --db or --db-url is required")
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	repo, cleanup, err := openRepository(ctx, c)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []ingest.Option{
		ingest.WithPoolSize(c.Int("workers")),
		ingest.WithDiagnostics(os.Stderr),
	}
	if policyPath := c.String("policy"); policyPath != "" {
		policy, err := ingest.LoadPolicy(policyPath)
		if err != nil {
			return fmt.Errorf("failed to load policy: %w", err)
		}
		opts = append(opts, ingest.WithPolicy(policy))
	}

	pipeline, err := ingest.NewPipeline(repo, opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	summary, err := pipeline.Run(ctx, os.Stdin)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(summary)
}

func exportCommand(c *cli.Context) error {
	ctx := context.Background()

	repo, cleanup, err := openRepository(ctx, c)
	if err != nil {
		return err
	}
	defer cleanup()

	out := os.Stdout
	if outPath := c.String("out"); outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	count, err := export.NewExporter(repo, slog.Default()).Export(ctx, out)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d articles\n", count)
	return nil
}

const (
	listHashWidth  = 12
	listTitleWidth = 48
)

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	repo, cleanup, err := openRepository(ctx, c)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := repo.GetRecentArticles(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}

	fmt.Printf("%s  %s  %5s  %s\n",
		runewidth.FillRight("HASH", listHashWidth),
		runewidth.FillRight("TITLE", listTitleWidth),
		"MIN",
		"UPDATED")
	for _, record := range records {
		fmt.Println(listRow(record))
	}
	return nil
}

// listRow renders one fixed-width table row. Supplied hashes are stored
// as-is and may be shorter than the column.
func listRow(record *core.ArticleRecord) string {
	title := record.Title
	if title == "" {
		title = record.CanonicalURL
	}
	return fmt.Sprintf("%s  %s  %5d  %s",
		runewidth.FillRight(runewidth.Truncate(record.Hash, listHashWidth, ""), listHashWidth),
		runewidth.FillRight(runewidth.Truncate(title, listTitleWidth, "..."), listTitleWidth),
		record.ReadingMinutes,
		record.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
