package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"webrag/internal/domain"
	"webrag/internal/session"
)

type stubPort struct {
	submitted []string
	asked     []string
	cleared   int
	submitErr error
	askErr    error
}

var _ Port = (*stubPort)(nil)

func (s *stubPort) SubmitURL(_ context.Context, sess *session.Session, rawURL string) (session.Snapshot, error) {
	s.submitted = append(s.submitted, rawURL)
	if s.submitErr != nil {
		return session.Snapshot{ID: sess.ID, State: session.StateEmpty, Error: "Failed to process URL: " + s.submitErr.Error()}, s.submitErr
	}
	return session.Snapshot{ID: sess.ID, URL: rawURL, State: session.StateReady, Chunks: 3, Title: "Page"}, nil
}

func (s *stubPort) ClearURL(sess *session.Session) session.Snapshot {
	s.cleared++
	return session.Snapshot{ID: sess.ID, State: session.StateEmpty}
}

func (s *stubPort) Ask(_ context.Context, _ *session.Session, question string) (*domain.QueryResult, error) {
	s.asked = append(s.asked, question)
	if s.askErr != nil {
		return nil, s.askErr
	}
	return &domain.QueryResult{
		Question: question,
		Chunks:   []domain.SearchResult{{Chunk: domain.Chunk{Text: "Bees dance. Flowers bloom."}, Score: 0.5}},
		Answer:   "- Bees dance [RAG]",
	}, nil
}

func newTestModel(port Port) Model {
	m := New(context.Background(), port, session.New(), "")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

// run feeds msg to m and executes the returned command, if it yields a
// pipeline message, once.
func run(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func pipelineMsg(msg tea.Msg) tea.Msg {
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			switch out := c().(type) {
			case urlProcessedMsg, answerMsg:
				return out
			}
		}
		return nil
	}
	return msg
}

func TestSubmitURLThenAsk(t *testing.T) {
	port := &stubPort{}
	m := newTestModel(port)
	m.url.SetValue("https://example.com")

	m, out := run(t, m, key(tea.KeyEnter))
	if !m.busy || m.status != "Processing URL..." {
		t.Fatalf("expected busy processing state, got busy=%v status=%q", m.busy, m.status)
	}
	next, _ := m.Update(pipelineMsg(out))
	m = next.(Model)
	if m.busy || m.snap.State != session.StateReady || m.focus != focusQuestion {
		t.Fatalf("expected ready with question focus, got %+v focus=%v", m.snap, m.focus)
	}
	if len(port.submitted) != 1 || port.submitted[0] != "https://example.com" {
		t.Fatalf("unexpected submissions %v", port.submitted)
	}

	m.question.SetValue("How do bees talk?")
	m, out = run(t, m, key(tea.KeyEnter))
	next, _ = m.Update(pipelineMsg(out))
	m = next.(Model)
	if m.result == nil || m.result.Answer != "- Bees dance [RAG]" {
		t.Fatalf("expected answer, got %+v", m.result)
	}
	if !strings.Contains(m.renderBody(), "Bees dance [RAG]") {
		t.Fatalf("answer not rendered: %q", m.renderBody())
	}

	next, _ = m.Update(key(tea.KeyCtrlR))
	m = next.(Model)
	if m.mode != viewPassages || !strings.Contains(m.renderBody(), "Passage 1/1") {
		t.Fatalf("expected passages view, got %q", m.renderBody())
	}
}

func TestSubmitURLFailureShowsError(t *testing.T) {
	port := &stubPort{submitErr: domain.E(domain.KindFetch, "fetch x", domain.ErrNoDocuments)}
	m := newTestModel(port)
	m.url.SetValue("https://empty.example")
	m, out := run(t, m, key(tea.KeyEnter))
	next, _ := m.Update(pipelineMsg(out))
	m = next.(Model)
	if m.busy || m.snap.State != session.StateEmpty {
		t.Fatalf("expected empty state, got %+v", m.snap)
	}
	if !strings.HasPrefix(m.errText, "Failed to process URL:") {
		t.Fatalf("unexpected error text %q", m.errText)
	}
}

func TestQuestionBeforeURLIsRejected(t *testing.T) {
	port := &stubPort{}
	m := newTestModel(port)
	next, _ := m.Update(key(tea.KeyTab))
	m = next.(Model)
	m.question.SetValue("anything?")
	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	if cmd != nil || len(port.asked) != 0 {
		t.Fatal("question must not be sent without a processed URL")
	}
	if m.status != "Please enter a URL to process." {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestStaleMessagesAreDropped(t *testing.T) {
	port := &stubPort{}
	m := newTestModel(port)
	m.url.SetValue("https://first.example")
	m, first := run(t, m, key(tea.KeyEnter))

	m.url.SetValue("https://second.example")
	m, second := run(t, m, key(tea.KeyEnter))

	next, _ := m.Update(pipelineMsg(first))
	m = next.(Model)
	if !m.busy || m.snap.State == session.StateReady {
		t.Fatal("late result for the first URL must be ignored")
	}
	next, _ = m.Update(pipelineMsg(second))
	m = next.(Model)
	if m.busy || m.snap.URL != "https://second.example" {
		t.Fatalf("expected second URL to win, got %+v", m.snap)
	}
}

func TestEscOnEmptyURLClears(t *testing.T) {
	port := &stubPort{}
	m := newTestModel(port)
	m.url.SetValue("https://example.com")
	m, out := run(t, m, key(tea.KeyEnter))
	next, _ := m.Update(pipelineMsg(out))
	m = next.(Model)

	next, _ = m.Update(key(tea.KeyTab))
	m = next.(Model)
	m.url.SetValue("")
	next, _ = m.Update(key(tea.KeyEsc))
	m = next.(Model)
	if port.cleared != 1 || m.snap.State != session.StateEmpty {
		t.Fatalf("expected clear, cleared=%d snap=%+v", port.cleared, m.snap)
	}
}

func TestAskErrorKeepsReady(t *testing.T) {
	port := &stubPort{askErr: errors.New("missing API key in env GROQ_API_KEY")}
	m := newTestModel(port)
	m.url.SetValue("https://example.com")
	m, out := run(t, m, key(tea.KeyEnter))
	next, _ := m.Update(pipelineMsg(out))
	m = next.(Model)

	m.question.SetValue("What is X?")
	m, out = run(t, m, key(tea.KeyEnter))
	next, _ = m.Update(pipelineMsg(out))
	m = next.(Model)
	if !strings.Contains(m.errText, "GROQ_API_KEY") {
		t.Fatalf("unexpected error text %q", m.errText)
	}
	if m.busy {
		t.Fatal("expected idle after failure")
	}
}

func TestHighlightBestSentence(t *testing.T) {
	got := highlightBestSentence("Cats sleep. Bees dance at dawn. Dogs bark.", "when do bees dance")
	if !strings.Contains(got, "Bees dance at dawn.") || !strings.HasPrefix(got, "Cats sleep.") {
		t.Fatalf("unexpected highlight %q", got)
	}
	if got := highlightBestSentence("No match here.", "zebra"); got != "No match here." {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}
