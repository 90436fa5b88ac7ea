package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"webrag/internal/answer"
	"webrag/internal/chunker"
	"webrag/internal/config"
	"webrag/internal/domain"
	"webrag/internal/embedding"
	"webrag/internal/index"
	"webrag/internal/ingest"
	"webrag/internal/llm"
	"webrag/internal/metrics"
	"webrag/internal/session"
	"webrag/internal/summarizer"
	"webrag/internal/vectorstore"
	"webrag/internal/websearch"
)

type app struct {
	cfg     *config.AppConfig
	ctrl    *session.Controller
	metrics *metrics.Recorder
	logger  *log.Logger
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[webrag] ", log.LstdFlags)
}

// openLog returns the configured log file, or fallback when none is set.
func openLog(cfg *config.AppConfig, fallback io.Writer) (io.Writer, func(), error) {
	if cfg.Log.File == "" {
		return fallback, func() {}, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func newChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "recursive", "":
		return chunker.NewRecursiveChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

// buildApp assembles every component selected by cfg.
func buildApp(cfg *config.AppConfig, logger *log.Logger) (*app, error) {
	emb, err := embedding.NewFactory(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	stores, err := vectorstore.NewFactory(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	fetcher, err := ingest.NewFetcher(cfg.Fetcher)
	if err != nil {
		return nil, err
	}
	ch, err := newChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	snippets, err := websearch.New(cfg.Search)
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, err
	}
	sum, err := summarizer.New(cfg.Summarizer)
	if err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder()
	ctrl := session.NewController(session.Deps{
		Ingestor:         ingest.NewIngestor(fetcher, ch, logger),
		Builder:          index.NewBuilder(emb, stores, config.Seconds(cfg.Embedder.TimeoutSecs, 0), logger),
		Snippets:         snippets,
		Synthesizer:      answer.NewSynthesizer(client),
		Summarizer:       sum,
		SummarySentences: cfg.Summarizer.MaxSentences,
		Metrics:          rec,
		Logger:           logger,
	})
	return &app{cfg: cfg, ctrl: ctrl, metrics: rec, logger: logger}, nil
}
