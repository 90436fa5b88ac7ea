package duckduckgo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const resultsPage = `<html><body>
<div class="results">
  <div class="result results_links result--ad">
    <a class="result__a" href="https://ads.example.com">Sponsored</a>
    <a class="result__snippet">Buy now</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <h2 class="result__title">
      <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fen.wikipedia.org%2Fwiki%2FParis&amp;rut=abc">Paris - <b>Wikipedia</b></a>
    </h2>
    <a class="result__snippet" href="#"><b>Paris</b> is the capital and largest city of France.</a>
  </div>
  <div class="result results_links web-result">
    <a class="result__a" href="https://example.org">Second</a>
    <a class="result__snippet">Second snippet</a>
  </div>
</div>
</body></html>`

func TestDiscoverParsesFirstOrganicResult(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotQuery = r.PostForm.Get("q")
		gotUA = r.UserAgent()
		_, _ = io.WriteString(w, resultsPage)
	}))
	defer srv.Close()

	res, err := Search{Endpoint: srv.URL}.Discover(context.Background(), "capital of France", 1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if gotQuery != "capital of France" || gotUA == "" {
		t.Fatalf("unexpected request q=%q ua=%q", gotQuery, gotUA)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	if res[0].Title != "Paris - Wikipedia" {
		t.Fatalf("unexpected title %q", res[0].Title)
	}
	if res[0].URL != "https://en.wikipedia.org/wiki/Paris" {
		t.Fatalf("unexpected url %q", res[0].URL)
	}
	if res[0].Snippet != "Paris is the capital and largest city of France." {
		t.Fatalf("unexpected snippet %q", res[0].Snippet)
	}
}

func TestDiscoverMoreResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, resultsPage)
	}))
	defer srv.Close()

	res, err := Search{Endpoint: srv.URL}.Discover(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(res) != 2 || res[1].URL != "https://example.org" {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestDiscoverNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body><div class="no-results">No results.</div></body></html>`)
	}))
	defer srv.Close()

	res, err := Search{Endpoint: srv.URL}.Discover(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no results, got %+v", res)
	}
}

func TestDiscoverStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := (Search{Endpoint: srv.URL}).Discover(context.Background(), "q", 1); err == nil {
		t.Fatal("expected error on 403")
	}
}
