package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"webrag/internal/domain"
	"webrag/internal/index"
	"webrag/internal/metrics"
)

var (
	// ErrNotReady is returned when a question arrives without a built index.
	ErrNotReady = errors.New("no processed URL; submit a URL first")
	// ErrStale is returned when a newer action superseded the work.
	ErrStale = errors.New("result discarded: superseded by a newer request")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Ingestor fetches a URL and splits it into chunks.
type Ingestor interface {
	Ingest(ctx context.Context, rawURL string) ([]domain.Chunk, *domain.Document, error)
}

// Synthesizer answers a question from retrieved chunks and a web snippet.
type Synthesizer interface {
	Synthesize(ctx context.Context, chunks []domain.SearchResult, snippet, question string) (answer, combined string, err error)
}

type Deps struct {
	Ingestor         Ingestor
	Builder          *index.Builder
	Snippets         domain.SnippetFetcher
	Synthesizer      Synthesizer
	Summarizer       domain.Summarizer
	SummarySentences int
	Metrics          *metrics.Recorder
	Logger           *log.Logger
}

// Controller drives sessions through Empty, Processing, Ready and Answering.
// Pipeline stages run without holding the session lock; results are committed
// only if the session generation is unchanged.
type Controller struct {
	d Deps
}

func NewController(d Deps) *Controller {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	return &Controller{d: d}
}

// SubmitURL processes rawURL and binds the resulting index to s. An empty URL
// clears the session. Resubmitting the URL that is already ready is a no-op.
func (c *Controller) SubmitURL(ctx context.Context, s *Session, rawURL string) (Snapshot, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return c.ClearURL(s), nil
	}

	s.mu.Lock()
	if s.url == rawURL && s.state == StateReady {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	old := s.resetLocked()
	gen := s.generation
	s.url = rawURL
	s.state = StateProcessing
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()
	closeIndex(c.d.Logger, old)

	c.d.Logger.Printf("session %s: processing %s (generation %d)", s.ID, rawURL, gen)
	ix, doc, err := c.process(ctx, rawURL)
	summary := ""
	if err == nil {
		summary = c.summarize(doc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		c.d.Metrics.ObserveIngest("stale")
		c.d.Logger.Printf("session %s: discarding stale result for %s", s.ID, rawURL)
		closeIndex(c.d.Logger, ix)
		return s.snapshotLocked(), ErrStale
	}
	s.cancel = nil
	if err != nil {
		c.d.Metrics.ObserveIngest(resultLabel(err))
		c.d.Logger.Printf("session %s: processing %s failed: %v", s.ID, rawURL, err)
		s.url = ""
		s.state = StateEmpty
		s.errMsg = fmt.Sprintf("Failed to process URL: %v", err)
		return s.snapshotLocked(), err
	}
	c.d.Metrics.ObserveIngest("ok")
	s.index = ix
	s.state = StateReady
	s.title = doc.Title
	s.summary = summary
	return s.snapshotLocked(), nil
}

func (c *Controller) process(ctx context.Context, rawURL string) (*index.Index, *domain.Document, error) {
	start := time.Now()
	chunks, doc, err := c.d.Ingestor.Ingest(ctx, rawURL)
	c.d.Metrics.ObserveStage(metrics.StageFetch, time.Since(start))
	if err != nil {
		return nil, nil, err
	}
	start = time.Now()
	ix, err := c.d.Builder.Build(ctx, chunks)
	c.d.Metrics.ObserveStage(metrics.StageIndex, time.Since(start))
	if err != nil {
		return nil, nil, err
	}
	return ix, doc, nil
}

func (c *Controller) summarize(doc *domain.Document) string {
	if c.d.Summarizer == nil || doc == nil {
		return ""
	}
	summary, err := c.d.Summarizer.Summarize(doc.Content, c.d.SummarySentences)
	if err != nil {
		c.d.Logger.Printf("summarize %s: %v", doc.URL, err)
		return ""
	}
	return summary
}

// ClearURL discards the bound index and invalidates any in-flight work.
func (c *Controller) ClearURL(s *Session) Snapshot {
	s.mu.Lock()
	old := s.resetLocked()
	s.url = ""
	s.state = StateEmpty
	snap := s.snapshotLocked()
	s.mu.Unlock()
	closeIndex(c.d.Logger, old)
	return snap
}

// Ask answers question from the bound index plus one web snippet. Failures
// leave the session Ready with its index intact; an unavailable snippet is
// not a failure.
func (c *Controller) Ask(ctx context.Context, s *Session, question string) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	s.mu.Lock()
	if s.state != StateReady || s.index == nil {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	gen := s.generation
	ix := s.index
	s.state = StateAnswering
	s.errMsg = ""
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	res, err := c.answer(ctx, ix, question)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		c.d.Metrics.ObserveQuestion("stale")
		return nil, ErrStale
	}
	s.cancel = nil
	s.state = StateReady
	if err != nil {
		c.d.Metrics.ObserveQuestion(resultLabel(err))
		c.d.Logger.Printf("session %s: question failed: %v", s.ID, err)
		s.errMsg = fmt.Sprintf("Error processing question: %v", err)
		return nil, err
	}
	c.d.Metrics.ObserveQuestion("ok")
	s.result = res
	r := *res
	return &r, nil
}

func (c *Controller) answer(ctx context.Context, ix *index.Index, question string) (*domain.QueryResult, error) {
	var (
		chunks  []domain.SearchResult
		snippet string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		defer func() { c.d.Metrics.ObserveStage(metrics.StageQuery, time.Since(start)) }()
		var err error
		chunks, err = ix.Query(gctx, question)
		return err
	})
	g.Go(func() error {
		snippet = c.fetchSnippet(gctx, question)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	answer, combined, err := c.d.Synthesizer.Synthesize(ctx, chunks, snippet, question)
	c.d.Metrics.ObserveStage(metrics.StageGenerate, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &domain.QueryResult{
		Question: question,
		Chunks:   chunks,
		Snippet:  snippet,
		Context:  combined,
		Answer:   answer,
	}, nil
}

func (c *Controller) fetchSnippet(ctx context.Context, question string) string {
	if c.d.Snippets == nil {
		return ""
	}
	start := time.Now()
	snippet, err := c.d.Snippets.FetchSnippet(ctx, question)
	c.d.Metrics.ObserveStage(metrics.StageSearch, time.Since(start))
	switch {
	case err != nil:
		c.d.Metrics.ObserveSnippet("error")
		c.d.Logger.Printf("web snippet unavailable: %v", err)
		return ""
	case snippet == "":
		c.d.Metrics.ObserveSnippet("empty")
	default:
		c.d.Metrics.ObserveSnippet("hit")
	}
	return snippet
}

func resultLabel(err error) string {
	if k := domain.KindOf(err); k != 0 {
		return k.String()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func closeIndex(logger *log.Logger, ix *index.Index) {
	if ix == nil {
		return
	}
	if err := ix.Close(); err != nil {
		logger.Printf("close index: %v", err)
	}
}
