package ingest

import (
	"fmt"
	"time"

	"webrag/internal/config"
)

// NewFetcher builds the Fetcher selected by cfg.Type.
func NewFetcher(cfg config.FetcherConfig) (Fetcher, error) {
	timeout := config.Seconds(cfg.TimeoutSecs, 30*time.Second)
	switch cfg.Type {
	case "http", "":
		return NewHTTPFetcher(timeout, cfg.UserAgent, cfg.MaxBytes), nil
	case "chromedp":
		return ChromeFetcher{Timeout: timeout, UserAgent: cfg.UserAgent}, nil
	default:
		return nil, fmt.Errorf("unknown fetcher: %s", cfg.Type)
	}
}
