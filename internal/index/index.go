package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"webrag/internal/domain"
	"webrag/internal/embedding"
	"webrag/internal/vectorstore"
)

// TopK is the number of passages returned by Query.
const TopK = 5

const textField = "text"

// Builder creates one Index per page. Embedders and stores come from factories
// because a TF-IDF embedder is fitted to a single corpus.
type Builder struct {
	newEmbedder  embedding.Factory
	newStore     vectorstore.Factory
	embedTimeout time.Duration
	logger       *log.Logger
}

func NewBuilder(emb embedding.Factory, store vectorstore.Factory, embedTimeout time.Duration, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{newEmbedder: emb, newStore: store, embedTimeout: embedTimeout, logger: logger}
}

// Index is an immutable, queryable view over the chunks of one page.
type Index struct {
	chunks   []domain.Chunk
	embedder domain.Embedder
	store    domain.VectorStore
	lexical  bleve.Index
	logger   *log.Logger
}

// Build embeds every chunk and loads it into a fresh store. Any failure is an
// index error and nothing is left allocated.
func (b *Builder) Build(ctx context.Context, chunks []domain.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, domain.E(domain.KindIndex, "build index", domain.ErrNoDocuments)
	}
	ix, err := b.build(ctx, chunks)
	if err != nil {
		return nil, domain.E(domain.KindIndex, "build index", err)
	}
	return ix, nil
}

func (b *Builder) build(ctx context.Context, chunks []domain.Chunk) (_ *Index, err error) {
	emb := b.newEmbedder()
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	if err := emb.Prepare(texts); err != nil {
		if !errors.Is(err, domain.ErrNoTerms) {
			return nil, fmt.Errorf("prepare embedder: %w", err)
		}
		// nothing to vectorize; the page is still answerable by text match
		lexical, err := newLexical(chunks)
		if err != nil {
			return nil, err
		}
		b.logger.Printf("indexed %d chunks (lexical only, %s found no terms)", len(chunks), emb.Name())
		return &Index{chunks: chunks, lexical: lexical, logger: b.logger}, nil
	}

	embedCtx := ctx
	if b.embedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, b.embedTimeout)
		defer cancel()
	}
	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		vec, err := emb.Embed(embedCtx, chunks[i].Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s: %w", chunks[i].ChunkID, err)
		}
		vectors[i] = vec
	}

	dim := emb.Dimension()
	if dim == 0 {
		dim = len(vectors[0])
	}
	store := b.newStore()
	defer func() {
		if err != nil {
			_ = store.Clear(context.WithoutCancel(ctx))
		}
	}()
	if err := store.Init(ctx, dim); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("upsert vectors: %w", err)
	}

	lexical, err := newLexical(chunks)
	if err != nil {
		return nil, err
	}

	b.logger.Printf("indexed %d chunks (embedder=%s, dim=%d)", len(chunks), emb.Name(), dim)
	return &Index{chunks: chunks, embedder: emb, store: store, lexical: lexical, logger: b.logger}, nil
}

func newLexical(chunks []domain.Chunk) (bleve.Index, error) {
	lexical, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}
	batch := lexical.NewBatch()
	for i := range chunks {
		if err := batch.Index(strconv.Itoa(i), map[string]any{textField: chunks[i].Text}); err != nil {
			_ = lexical.Close()
			return nil, fmt.Errorf("index chunk %s: %w", chunks[i].ChunkID, err)
		}
	}
	if err := lexical.Batch(batch); err != nil {
		_ = lexical.Close()
		return nil, fmt.Errorf("write lexical index: %w", err)
	}
	return lexical, nil
}

// Query returns up to TopK chunks, most similar first. Equal scores keep
// document order. When the question shares no vocabulary with the page the
// lexical index ranks instead: chunks containing the question verbatim, then
// bleve hits, padded with leading chunks.
func (ix *Index) Query(ctx context.Context, question string) ([]domain.SearchResult, error) {
	if ix.embedder == nil {
		return ix.lexicalSearch(question)
	}
	vec, err := ix.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.E(domain.KindIndex, "embed question", err)
	}
	if isZero(vec) {
		return ix.lexicalSearch(question)
	}
	res, err := ix.store.Search(ctx, vec, TopK)
	if err != nil {
		return nil, domain.E(domain.KindIndex, "search vectors", err)
	}
	allZero := true
	for _, r := range res {
		if r.Score > 1e-9 {
			allZero = false
			break
		}
	}
	if allZero {
		return ix.lexicalSearch(question)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Score != res[j].Score {
			return res[i].Score > res[j].Score
		}
		return res[i].Chunk.Index < res[j].Chunk.Index
	})
	return res, nil
}

func (ix *Index) lexicalSearch(question string) ([]domain.SearchResult, error) {
	k := min(TopK, len(ix.chunks))
	out := make([]domain.SearchResult, 0, k)
	seen := make(map[int]bool, k)
	add := func(i int, score float64) {
		if len(out) < k && !seen[i] {
			seen[i] = true
			out = append(out, domain.SearchResult{Chunk: ix.chunks[i], Score: score})
		}
	}

	// exact matches before substring matches
	if q := strings.TrimSpace(question); q != "" {
		for i := range ix.chunks {
			if strings.TrimSpace(ix.chunks[i].Text) == q {
				add(i, 1)
			}
		}
		for i := range ix.chunks {
			if strings.Contains(ix.chunks[i].Text, q) {
				add(i, 1)
			}
		}
	}

	q := bleve.NewMatchQuery(question)
	q.SetField(textField)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	res, err := ix.lexical.Search(req)
	if err != nil {
		return nil, domain.E(domain.KindIndex, "lexical search", err)
	}
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(ix.chunks) {
			continue
		}
		add(i, hit.Score)
	}
	for i := 0; i < len(ix.chunks); i++ {
		add(i, 0)
	}
	ix.logger.Printf("lexical fallback for %q: %d hits", question, len(res.Hits))
	return out, nil
}

// Chunks returns the indexed chunks in document order.
func (ix *Index) Chunks() []domain.Chunk { return ix.chunks }

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Close releases the vector store and the lexical index.
func (ix *Index) Close() error {
	var errs []error
	if ix.store != nil {
		errs = append(errs, ix.store.Clear(context.Background()))
	}
	return errors.Join(append(errs, ix.lexical.Close())...)
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textMapping := bleve.NewTextFieldMapping()
	textMapping.Store = false
	textMapping.Index = true
	docMapping.AddFieldMappingsAt(textField, textMapping)
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
