package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"webrag/internal/domain"
)

// HTTPFetcher downloads pages with net/http. HTML is reduced with readability,
// PDFs are converted to text and plain text is taken as is.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

func NewHTTPFetcher(timeout time.Duration, userAgent string, maxBytes int64) *HTTPFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,text/plain;q=0.9,*/*;q=0.8")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: unexpected status %s", rawURL, resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	doc := &domain.Document{URL: rawURL}
	if int64(len(raw)) > f.maxBytes {
		raw = raw[:f.maxBytes]
		doc.Truncated = true
	}

	mediaType := contentType(resp.Header.Get("Content-Type"), raw)
	switch {
	case mediaType == "application/pdf":
		text, err := extractPDF(raw)
		if err != nil {
			return nil, err
		}
		doc.Content = text
	case mediaType == "text/plain":
		doc.Content = normalizeText(string(raw))
	default:
		doc.Title, doc.Content = extractHTML(raw, rawURL)
	}
	return doc, nil
}

func contentType(header string, raw []byte) string {
	if header == "" {
		header = http.DetectContentType(raw)
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	}
	return mediaType
}
