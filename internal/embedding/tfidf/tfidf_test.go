package tfidf

import (
	"context"
	"errors"
	"math"
	"testing"

	"webrag/internal/domain"
)

func TestEmbedRequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	if _, err := e.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected error before Prepare")
	}
}

func TestPrepareRejectsEmptyCorpus(t *testing.T) {
	tests := []struct {
		name   string
		corpus []string
	}{
		{name: "nil corpus", corpus: nil},
		{name: "only punctuation", corpus: []string{"--- *** ---", "!!! ???"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewEmbedder().Prepare(tt.corpus); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if err := NewEmbedder().Prepare([]string{"..."}); !errors.Is(err, domain.ErrNoTerms) {
		t.Fatalf("expected ErrNoTerms, got %v", err)
	}
}

func TestStopwordOnlyTextKeepsItsTokens(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{"Gophers dig tunnels in the garden.", "It is what it is, and that is that."}
	if err := e.Prepare(corpus); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	vec, err := e.Embed(context.Background(), corpus[1])
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("expected unit vector for stopword-only text, got norm %v", norm)
	}
}

func TestEmbedNormalizedAndDeterministic(t *testing.T) {
	corpus := []string{
		"Gophers dig tunnels in the garden.",
		"Rust and Go are systems languages.",
		"The garden has tomatoes and basil.",
	}
	e := NewEmbedder()
	if err := e.Prepare(corpus); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if e.Dimension() == 0 {
		t.Fatal("expected non-zero dimension")
	}

	a, err := e.Embed(context.Background(), corpus[0])
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(context.Background(), corpus[0])
	norm := 0.0
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d", i)
		}
		norm += a[i] * a[i]
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("expected unit vector, got squared norm %v", norm)
	}
}

func TestEmbedUnknownTermsIsZero(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"alpha beta", "gamma delta"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	v, err := e.Embed(context.Background(), "zeta")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatal("expected zero vector for unknown terms")
		}
	}
}

func TestEmbedHonoursCancelledContext(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"alpha"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Embed(ctx, "alpha"); err == nil {
		t.Fatal("expected context error")
	}
}
