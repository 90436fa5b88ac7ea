package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"webrag/internal/domain"
	"webrag/internal/llm"
)

type stubClient struct {
	reply    string
	err      error
	messages []llm.Message
}

var _ llm.Client = (*stubClient)(nil)

func (s *stubClient) Generate(_ context.Context, messages []llm.Message) (string, error) {
	s.messages = messages
	return s.reply, s.err
}

func results(texts ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = domain.SearchResult{Chunk: domain.Chunk{Text: t, Index: i}}
	}
	return out
}

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []domain.SearchResult
		snippet string
		want    string
	}{
		{"both", results("a", "b"), "web", "RAG DATA:\na\nb\n\nWEB SEARCH:\nweb"},
		{"no snippet", results("a"), "", "RAG DATA:\na\n\nWEB SEARCH:\n"},
		{"no chunks", nil, "web", "RAG DATA:\n\n\nWEB SEARCH:\nweb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildContext(tt.chunks, tt.snippet); got != tt.want {
				t.Fatalf("BuildContext = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesizeSendsTemplatedPrompt(t *testing.T) {
	stub := &stubClient{reply: "- The tower is in Paris [RAG]\n- It opened in 1889 [Search]"}
	s := NewSynthesizer(stub)
	answer, combined, err := s.Synthesize(context.Background(), results("The Eiffel Tower is in Paris."), "Opened in 1889.", "Where is the tower?")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if answer != stub.reply {
		t.Fatalf("answer not returned verbatim: %q", answer)
	}
	if combined != "RAG DATA:\nThe Eiffel Tower is in Paris.\n\nWEB SEARCH:\nOpened in 1889." {
		t.Fatalf("unexpected context %q", combined)
	}
	if len(stub.messages) != 1 || stub.messages[0].Role != llm.RoleUser {
		t.Fatalf("expected a single user message, got %+v", stub.messages)
	}
	prompt := stub.messages[0].Content
	for _, want := range []string{
		"Answer in Bullet points",
		"[Search , RAG]",
		"say you couldn't find it",
		"Context:\n" + combined,
		"Question: Where is the tower?",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name string
		stub *stubClient
		kind domain.Kind
	}{
		{"plain failure", &stubClient{err: errors.New("connection reset")}, domain.KindGeneration},
		{"config failure kept", &stubClient{err: domain.E(domain.KindConfig, "configure llm", errors.New("missing API key"))}, domain.KindConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSynthesizer(tt.stub).Synthesize(context.Background(), results("a"), "", "q")
			if domain.KindOf(err) != tt.kind {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestSynthesizeReturnsBlankReplyVerbatim(t *testing.T) {
	answer, _, err := NewSynthesizer(&stubClient{reply: "  "}).Synthesize(context.Background(), results("a"), "", "q")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if answer != "  " {
		t.Fatalf("expected reply verbatim, got %q", answer)
	}
}
