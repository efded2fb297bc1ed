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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/latticekb/lattice/ai"
	"github.com/latticekb/lattice/ai/openai"
	"github.com/latticekb/lattice/enrichment"
	"github.com/latticekb/lattice/graph"
	"github.com/latticekb/lattice/ingestion"
	"github.com/latticekb/lattice/storage/sqlite"
)

func buildProvider(c *cli.Context) (ai.Provider, error) {
	extractorHost := c.String("extractor-host")
	if extractorHost == "" {
		extractorHost = c.String("embedding-host")
	}

	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithExtractorHost(extractorHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithExtractorModel(c.String("extractor-model")),
		ai.WithToken(c.String("token")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return openai.NewProvider(config)
}

func orchestratorConfig(c *cli.Context) enrichment.Config {
	return enrichment.Config{
		EmbeddingBatchSize: c.Int("embedding-batch-size"),
		ConceptBatchSize:   c.Int("concept-batch-size"),
		MaxAttempts:        c.Int("max-attempts"),
		Workers:            c.Int("workers"),
		TimeBudget:         c.Duration("time-budget"),
		BaseDelay:          c.Duration("retry-delay"),
		EmbeddingEnabled:   !c.Bool("no-embeddings"),
		ConceptsEnabled:    !c.Bool("no-concepts"),
	}
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	service, err := ingestion.NewService(store,
		ingestion.WithChunkSize(c.Int("chunk-size"), c.Int("overlap")),
		ingestion.WithLimits(ingestion.Limits{
			MaxFileSize:   c.Int64("max-file-size"),
			MaxPages:      c.Int("max-pages"),
			MaxChunks:     c.Int("max-chunks"),
			MinTextLength: c.Int("min-text-length"),
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create ingestion service: %w", err)
	}

	ctx := c.Context
	for _, path := range c.Args().Slice() {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}

		info, err := file.Stat()
		if err != nil {
			file.Close()
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		id, err := service.IngestObject(ctx, path, info.Size(), file)
		file.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAILED  %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "OK      %s (document %d)\n", path, id)
	}

	return nil
}

func processCommand(c *cli.Context) error {
	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	provider, err := buildProvider(c)
	if err != nil {
		return err
	}
	defer provider.Close()

	orchestrator, err := enrichment.NewOrchestrator(store, provider,
		enrichment.WithConfig(orchestratorConfig(c)))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Release()

	summary, err := orchestrator.ProcessOnce(c.Context)
	if err != nil {
		return fmt.Errorf("enrichment run failed: %w", err)
	}

	printSummary(summary)
	return nil
}

func runCommand(c *cli.Context) error {
	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	provider, err := buildProvider(c)
	if err != nil {
		return err
	}
	defer provider.Close()

	orchestrator, err := enrichment.NewOrchestrator(store, provider,
		enrichment.WithConfig(orchestratorConfig(c)))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Release()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := c.Duration("interval")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Fprintf(os.Stderr, "Running enrichment every %s, Ctrl-C to stop\n", interval)

	for {
		summary, err := orchestrator.ProcessOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("enrichment run failed: %w", err)
		}
		if !summary.EarlyExit {
			printSummary(summary)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func crossdocCommand(c *cli.Context) error {
	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	provider, err := buildProvider(c)
	if err != nil {
		return err
	}
	defer provider.Close()

	writer, err := graph.NewWriter(store, provider)
	if err != nil {
		return fmt.Errorf("failed to create graph writer: %w", err)
	}

	created, err := writer.CrossDocumentPass(c.Context, c.Float64("threshold"))
	if err != nil {
		return fmt.Errorf("cross-document pass failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created %d similar_to links\n", created)
	return nil
}

func statsCommand(c *cli.Context) error {
	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(context.Background(), c.Int("max-attempts"))
	if err != nil {
		return fmt.Errorf("failed to query stats: %w", err)
	}

	fmt.Printf("Documents:          %d (%d complete)\n", stats.TotalDocuments, stats.CompleteDocuments)
	fmt.Printf("Chunks:             %d\n", stats.TotalChunks)
	fmt.Printf("Concepts:           %d\n", stats.TotalConcepts)
	fmt.Printf("Pending embeddings: %d\n", stats.PendingEmbeddings)
	fmt.Printf("Pending concepts:   %d\n", stats.PendingConcepts)
	fmt.Printf("Failed embeddings:  %d\n", stats.FailedEmbeddings)
	fmt.Printf("Failed concepts:    %d\n", stats.FailedConcepts)
	return nil
}

func printSummary(summary *enrichment.Summary) {
	fmt.Fprintf(os.Stderr, "Run %s: %d embeddings (%d failed), %d concept extractions (%d failed), %d skipped, %d documents completed in %s\n",
		summary.RunId,
		summary.EmbeddingsProcessed, summary.EmbeddingsFailed,
		summary.ConceptsProcessed, summary.ConceptsFailed,
		summary.Skipped, summary.DocumentsCompleted,
		summary.Duration.Round(time.Millisecond))
}
