package websearch

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"webrag/internal/config"
	"webrag/internal/domain"
	"webrag/internal/websearch/brave"
	"webrag/internal/websearch/duckduckgo"
	"webrag/internal/websearch/models"
	"webrag/internal/websearch/serper"
)

// WebSearcher is implemented by every search provider.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	DuckDuckGoProvider Provider = "duckduckgo"
	BraveProvider      Provider = "brave"
	SerperProvider     Provider = "serper"
)

// Fetcher asks a provider for exactly one result and returns its body text.
type Fetcher struct {
	searcher WebSearcher
}

var _ domain.SnippetFetcher = (*Fetcher)(nil)

func NewFetcher(searcher WebSearcher) *Fetcher {
	return &Fetcher{searcher: searcher}
}

// FetchSnippet returns "" when the search has no results. Any provider failure
// is a search error.
func (f *Fetcher) FetchSnippet(ctx context.Context, query string) (string, error) {
	results, err := f.searcher.Discover(ctx, query, 1)
	if err != nil {
		return "", domain.E(domain.KindSearch, "web search", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return strings.TrimSpace(results[0].Snippet), nil
}

// New builds a Fetcher for the provider selected by cfg.Type. Keyed providers
// read their key from cfg.APIKeyEnv; a missing key surfaces on first search.
func New(cfg config.SearchConfig) (*Fetcher, error) {
	client := &http.Client{Timeout: config.Seconds(cfg.TimeoutSecs, 10*time.Second)}
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	switch Provider(cfg.Type) {
	case DuckDuckGoProvider, "":
		return NewFetcher(duckduckgo.Search{Client: client}), nil
	case BraveProvider:
		return NewFetcher(brave.Search{APIKey: key, Client: client}), nil
	case SerperProvider:
		return NewFetcher(serper.Search{APIKey: key, Client: client}), nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", cfg.Type)
	}
}
