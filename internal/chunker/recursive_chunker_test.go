package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"webrag/internal/domain"
)

func TestChunkThreeParagraphs(t *testing.T) {
	content := "Go is a statically typed language.\n\n" +
		"It was designed at Google.\n\n" +
		"Goroutines make concurrency cheap."
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)

	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for short page, got %d", len(chunks))
	}
	if chunks[0].Text != content {
		t.Fatalf("expected chunk to preserve text, got %q", chunks[0].Text)
	}
	if chunks[0].ChunkID != "doc:0" || chunks[0].DocumentID != "doc" {
		t.Fatalf("unexpected chunk ids: %+v", chunks[0])
	}
}

func TestChunkRespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 0, 1500)
	for i := 0; i < 1500; i++ {
		words = append(words, fmt.Sprintf("w%05d", i))
	}
	text := strings.Join(words, " ")
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)

	parts := c.SplitText(text)
	if len(parts) < 2 {
		t.Fatalf("expected several chunks, got %d", len(parts))
	}
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > DefaultChunkSize {
			t.Fatalf("chunk %d has %d runes, limit %d", i, n, DefaultChunkSize)
		}
	}
	for i := 1; i < len(parts); i++ {
		first := strings.Fields(parts[i])[0]
		if !strings.Contains(parts[i-1], first) {
			t.Fatalf("chunk %d does not overlap with chunk %d (first word %q)", i, i-1, first)
		}
		if parts[i] == parts[i-1] {
			t.Fatalf("chunks %d and %d are identical", i-1, i)
		}
	}
}

func TestChunkPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("alpha beta gamma. ", 30) // 540 runes
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)

	parts := c.SplitText(text)
	if len(parts) != 3 {
		t.Fatalf("expected one chunk per paragraph, got %d", len(parts))
	}
	for i, p := range parts {
		if strings.Contains(p, "\n\n") {
			t.Fatalf("chunk %d spans a paragraph boundary", i)
		}
	}
}

func TestChunkEmpty(t *testing.T) {
	c := NewRecursiveChunker(0, -1)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: " \n\n \t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunkMultibyte(t *testing.T) {
	text := strings.Repeat("日本語のテキスト", 300)
	c := NewRecursiveChunker(100, 10)
	for i, p := range c.SplitText(text) {
		if !utf8.ValidString(p) {
			t.Fatalf("chunk %d is not valid utf-8", i)
		}
		if n := utf8.RuneCountInString(p); n > 100 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
}
