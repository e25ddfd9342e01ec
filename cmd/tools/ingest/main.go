// cmd/tools/ingest/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"corep-assist/internal/common/config"
	"corep-assist/internal/common/database"
	"corep-assist/internal/common/logger"
	"corep-assist/internal/embedding"
	"corep-assist/internal/pipeline/retrieve"
	"corep-assist/internal/pipeline/retrieve/store"
)

type document struct {
	path         string
	documentType string
}

// Default corpus shipped under data/regulatory_docs.
var defaultDocuments = []document{
	{path: "pra_rulebook_sample.txt", documentType: "PRA_Rulebook"},
	{path: "corep_instructions_sample.txt", documentType: "COREP_Instructions"},
}

func main() {
	dir := flag.String("dir", "data/regulatory_docs", "Directory containing the default regulatory documents")
	clearIndex := flag.Bool("clear", false, "Clear existing chunks before ingesting")
	docType := flag.String("type", "", "Document type for positional paths given without an explicit type")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New("warn", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	index, cleanup, err := buildIndex(cfg, log)
	if err != nil {
		fmt.Printf("Error initializing index: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()

	if *clearIndex {
		if err := index.Clear(ctx); err != nil {
			fmt.Printf("Error clearing index: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Cleared existing chunks.")
	}

	documents := resolveDocuments(flag.Args(), *dir, *docType)

	total := 0
	failed := 0
	for _, doc := range documents {
		count, err := index.Ingest(ctx, doc.path, doc.documentType)
		if err != nil {
			fmt.Printf("Error ingesting %s: %v\n", doc.path, err)
			failed++
			continue
		}
		fmt.Printf("Ingested %s (%s): %d chunks\n", doc.path, doc.documentType, count)
		total += count
	}

	fmt.Printf("Total chunks ingested: %d\n", total)

	if failed == len(documents) {
		os.Exit(1)
	}
}

// resolveDocuments maps CLI arguments to ingestion targets. Positional
// arguments take the form `path` or `path:documentType`; with no
// arguments the default corpus under dir is used.
func resolveDocuments(args []string, dir, fallbackType string) []document {
	if len(args) == 0 {
		docs := make([]document, len(defaultDocuments))
		for i, doc := range defaultDocuments {
			docs[i] = document{
				path:         filepath.Join(dir, doc.path),
				documentType: doc.documentType,
			}
		}
		return docs
	}

	docs := make([]document, 0, len(args))
	for _, arg := range args {
		path, documentType := arg, fallbackType
		if idx := strings.LastIndex(arg, ":"); idx > 0 {
			path, documentType = arg[:idx], arg[idx+1:]
		}
		if documentType == "" {
			documentType = deriveDocumentType(path)
		}
		docs = append(docs, document{path: path, documentType: documentType})
	}
	return docs
}

func deriveDocumentType(path string) string {
	base := filepath.Base(path)
	for _, doc := range defaultDocuments {
		if doc.path == base {
			return doc.documentType
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func buildIndex(cfg *config.Config, log logger.Logger) (*retrieve.Index, func(), error) {
	ctx := context.Background()

	var vectorStore store.VectorStore
	cleanup := func() {}

	switch cfg.Index.Backend {
	case "postgres":
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connection: %w", err)
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		vectorStore, err = store.NewPostgresStore(pg.GetDB())
		if err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		cleanup = func() { pg.Close() }

	case "elasticsearch":
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, fmt.Errorf("elasticsearch connection: %w", err)
		}
		vectorStore, err = store.NewElasticStore(esClient.Client, cfg.Index.Collection, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, nil, fmt.Errorf("elasticsearch store: %w", err)
		}

	default:
		sqlite, err := database.NewSQLite(cfg.Index.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		vectorStore, err = store.NewSQLiteStore(sqlite.GetDB())
		if err != nil {
			sqlite.Close()
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		cleanup = func() { sqlite.Close() }
	}

	var embedder embedding.Embedder
	if cfg.Embedding.Provider == "openai" {
		embedder = embedding.NewOpenAIEmbedder(&embedding.OpenAIConfig{
			BaseURL:    cfg.APIs.OpenAI.BaseURL,
			APIKey:     cfg.APIs.OpenAI.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			MaxRetries: 3,
		}, log)
	} else {
		embedder = embedding.NewLocalEmbedder(cfg.Embedding.Dimensions)
	}

	index := retrieve.NewIndex(
		&retrieve.Config{MaxResults: cfg.Retrieval.MaxResults},
		vectorStore, embedder, log,
	)
	return index, cleanup, nil
}
