package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"webrag/internal/domain"
)

// Fetcher downloads a page and reduces it to plain text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*domain.Document, error)
}

// Ingestor turns a URL into chunks ready for indexing.
type Ingestor struct {
	fetcher Fetcher
	chunker domain.Chunker
	logger  *log.Logger
}

func NewIngestor(fetcher Fetcher, chunker domain.Chunker, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingestor{fetcher: fetcher, chunker: chunker, logger: logger}
}

// Ingest fetches rawURL and splits its text. Every failure, including a page
// without text, is a fetch error.
func (in *Ingestor) Ingest(ctx context.Context, rawURL string) ([]domain.Chunk, *domain.Document, error) {
	op := "fetch " + rawURL
	if err := ValidateURL(rawURL); err != nil {
		return nil, nil, domain.E(domain.KindFetch, op, err)
	}
	doc, err := in.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		in.logger.Printf("fetch %s failed: %v", rawURL, err)
		return nil, nil, domain.E(domain.KindFetch, op, err)
	}
	doc.URL = rawURL
	if doc.ID == "" {
		doc.ID = documentID(rawURL)
	}
	if doc.Truncated {
		in.logger.Printf("fetch %s: body exceeded size limit, indexing the first part only", rawURL)
	}
	if strings.TrimSpace(doc.Content) == "" {
		in.logger.Printf("fetch %s: page has no text", rawURL)
		return nil, nil, domain.E(domain.KindFetch, op, domain.ErrNoDocuments)
	}
	chunks, err := in.chunker.Chunk(*doc)
	if err != nil {
		return nil, nil, domain.E(domain.KindFetch, op, fmt.Errorf("chunk page: %w", err))
	}
	if len(chunks) == 0 {
		return nil, nil, domain.E(domain.KindFetch, op, domain.ErrNoDocuments)
	}
	in.logger.Printf("fetched %s: %d chars, %d chunks", rawURL, len(doc.Content), len(chunks))
	return chunks, doc, nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}
	return nil
}

func documentID(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
