// Copyright 2025 Lattice Authors
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/latticekb/lattice/graph"
)

func main() {
	app := &cli.App{
		Name:  "lattice",
		Usage: "Document ingestion and concept graph enrichment pipeline",
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
				Name:      "ingest",
				Usage:     "Ingest documents into the knowledge base",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk size in characters",
						Value: 2000,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Character overlap between adjacent chunks",
						Value: 200,
					},
					&cli.Int64Flag{
						Name:  "max-file-size",
						Usage: "Maximum file size in bytes",
						Value: 250 * 1024 * 1024,
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Maximum page count per document",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "max-chunks",
						Usage: "Maximum chunk count per document",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "min-text-length",
						Usage: "Minimum extracted text length in characters",
						Value: 100,
					},
				),
			},
			{
				Name:   "process",
				Usage:  "Run one enrichment pass over pending chunks",
				Action: processCommand,
				Flags:  append(storeFlags(), append(aiFlags(), orchestratorFlags()...)...),
			},
			{
				Name:   "run",
				Usage:  "Run enrichment passes on a fixed schedule until interrupted",
				Action: runCommand,
				Flags: append(storeFlags(), append(aiFlags(), append(orchestratorFlags(),
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Time between enrichment passes",
						Value: 5 * time.Minute,
					},
				)...)...),
			},
			{
				Name:   "crossdoc",
				Usage:  "Link concepts shared across documents by embedding similarity",
				Action: crossdocCommand,
				Flags: append(storeFlags(), append(aiFlags(),
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity for a similar_to link",
						Value: graph.DefaultSimilarityThreshold,
					},
				)...),
			},
			{
				Name:   "stats",
				Usage:  "Show processing statistics",
				Action: statsCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Attempt ceiling used to count retryable chunks",
						Value: 3,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the database directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "extractor-host",
			Usage: "Concept extraction service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:  "extractor-model",
			Usage: "Concept extraction model name",
			Value: "gpt-4o-mini",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API token for the AI services",
			EnvVars: []string{"LATTICE_AI_TOKEN"},
			Value:   "none",
		},
	}
}

func orchestratorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "embedding-batch-size",
			Usage: "Chunks fetched per embedding batch",
			Value: 500,
		},
		&cli.IntFlag{
			Name:  "concept-batch-size",
			Usage: "Chunks fetched per concept batch",
			Value: 200,
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Attempt ceiling per chunk",
			Value: 3,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent enrichment calls",
			Value: 20,
		},
		&cli.DurationFlag{
			Name:  "time-budget",
			Usage: "Wall-clock budget per invocation",
			Value: 9 * time.Minute,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 2 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "no-embeddings",
			Usage: "Disable the embedding phase",
		},
		&cli.BoolFlag{
			Name:  "no-concepts",
			Usage: "Disable the concept extraction phase",
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
