package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"webrag/internal/domain"
)

// ChromeFetcher renders pages in headless Chrome before extracting text, for
// sites that build their content with JavaScript.
type ChromeFetcher struct {
	Timeout   time.Duration
	UserAgent string
}

func (f ChromeFetcher) Fetch(ctx context.Context, rawURL string) (*domain.Document, error) {
	timeout := f.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(f.UserAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var page string
	err := chromedp.Run(bctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}
	title, text := extractHTML([]byte(page), rawURL)
	return &domain.Document{URL: rawURL, Title: title, Content: text}, nil
}
