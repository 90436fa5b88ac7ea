package domain

import "context"

// Document is a single fetched web page reduced to plain text.
type Document struct {
	ID      string
	URL     string
	Title   string
	Content string
	// Truncated is set when the body exceeded the fetch size limit.
	Truncated bool
}

// Chunk is a contiguous span of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// QueryResult is everything produced while answering one question.
type QueryResult struct {
	Question string
	Chunks   []SearchResult
	Snippet  string
	Context  string
	Answer   string
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore holds vectors and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// SnippetFetcher returns the body text of a single web search result.
type SnippetFetcher interface {
	FetchSnippet(ctx context.Context, query string) (string, error)
}
