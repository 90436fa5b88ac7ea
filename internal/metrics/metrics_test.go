package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRecorderExposesSeries(t *testing.T) {
	r := NewRecorder()
	r.ObserveIngest("ok")
	r.ObserveIngest("fetch")
	r.ObserveQuestion("ok")
	r.ObserveSnippet("empty")
	r.ObserveStage(StageFetch, 120*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`webrag_ingest_total{result="ok"} 1`,
		`webrag_ingest_total{result="fetch"} 1`,
		`webrag_questions_total{result="ok"} 1`,
		`webrag_snippet_total{result="empty"} 1`,
		`webrag_stage_duration_seconds_count{stage="fetch"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveIngest("ok")
	r.ObserveQuestion("ok")
	r.ObserveSnippet("hit")
	r.ObserveStage(StageQuery, time.Second)
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObserveIngest("ok")
	mfs, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "webrag_ingest_total" && len(mf.GetMetric()) != 0 {
			t.Fatal("expected separate registries")
		}
	}
}
