package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"webrag/internal/domain"
)

type fakeQdrant struct {
	mu      sync.Mutex
	calls   []string
	apiKeys []string
	points  []map[string]any
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
	switch {
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/points"):
		var body struct {
			Points []map[string]any `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points = append(f.points, body.Points...)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/points/search"):
		_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{"document_id":"doc","chunk_id":"doc:1","index":1,"text":"second"}}]}`))
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
	default:
		_, _ = w.Write([]byte(`{"result":true}`))
	}
}

func TestStorageLifecycle(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL + "/", APIKey: "k", CollectionPrefix: "test-"})
	if !strings.HasPrefix(s.Collection(), "test-") {
		t.Fatalf("unexpected collection %q", s.Collection())
	}
	other := NewStorage(Config{URL: srv.URL, CollectionPrefix: "test-"})
	if other.Collection() == s.Collection() {
		t.Fatal("expected unique collection per storage")
	}

	ctx := context.Background()
	if err := s.Init(ctx, 2); err != nil {
		t.Fatalf("init: %v", err)
	}
	chunks := []domain.Chunk{{DocumentID: "doc", ChunkID: "doc:0", Text: "first"}, {DocumentID: "doc", ChunkID: "doc:1", Index: 1, Text: "second"}}
	if err := s.Upsert(ctx, chunks, [][]float64{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	res, err := s.Search(ctx, []float64{0, 1}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].Chunk.ChunkID != "doc:1" || res[0].Chunk.Index != 1 || res[0].Chunk.Text != "second" {
		t.Fatalf("unexpected results %+v", res)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear should ignore 404: %v", err)
	}

	if len(fake.points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(fake.points))
	}
	if fake.points[0]["id"] == fake.points[1]["id"] {
		t.Fatal("expected unique point ids")
	}
	for _, k := range fake.apiKeys {
		if k != "k" {
			t.Fatalf("expected api-key header on every call, got %q", k)
		}
	}
	wantPrefix := "/collections/" + s.Collection()
	for _, c := range fake.calls {
		if !strings.Contains(c, wantPrefix) {
			t.Fatalf("call %q does not target %s", c, wantPrefix)
		}
	}
}

func TestStorageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL})
	if err := s.Init(context.Background(), 3); err == nil {
		t.Fatal("expected error on 500")
	}
	if err := s.Clear(context.Background()); err == nil {
		t.Fatal("expected clear to surface 500")
	}
}
