package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"webrag/internal/domain"
	"webrag/internal/session"
)

// Port is the TUI-facing subset of the session controller.
type Port interface {
	SubmitURL(ctx context.Context, s *session.Session, rawURL string) (session.Snapshot, error)
	ClearURL(s *session.Session) session.Snapshot
	Ask(ctx context.Context, s *session.Session, question string) (*domain.QueryResult, error)
}

type focus int

const (
	focusURL focus = iota
	focusQuestion
)

type viewMode int

const (
	viewAnswer viewMode = iota
	viewPassages
)

// urlProcessedMsg and answerMsg carry the request sequence they were started
// under; anything older than the model's current sequence is dropped.
type urlProcessedMsg struct {
	seq  uint64
	snap session.Snapshot
	err  error
}

type answerMsg struct {
	seq    uint64
	result *domain.QueryResult
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	ctrl     Port
	sess     *session.Session
	url      textinput.Model
	question textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	focus    focus
	mode     viewMode
	seq      uint64
	busy     bool
	snap     session.Snapshot
	result   *domain.QueryResult
	cursor   int
	status   string
	errText  string
	ready    bool
	startCmd tea.Cmd
}

// New creates the TUI model. A non-empty initialURL is processed on start.
func New(ctx context.Context, ctrl Port, sess *session.Session, initialURL string) Model {
	u := textinput.New()
	u.Prompt = "URL > "
	u.Placeholder = "Enter a URL and press Enter"
	u.CharLimit = 0
	u.Focus()

	q := textinput.New()
	q.Prompt = "Ask > "
	q.Placeholder = "Ask a question about the page"
	q.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		sess:     sess,
		url:      u,
		question: q,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		snap:     sess.Snapshot(),
		status:   "Please enter a URL to process.",
	}
	if initialURL = strings.TrimSpace(initialURL); initialURL != "" {
		m.url.SetValue(initialURL)
		m.startCmd = m.beginSubmit(initialURL)
	}
	return m
}

// Init starts the cursor blink, the spinner and any initial URL.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.startCmd)
}

// beginSubmit marks the model busy and returns the command that processes
// rawURL off the UI goroutine.
func (m *Model) beginSubmit(rawURL string) tea.Cmd {
	m.seq++
	seq := m.seq
	m.busy = true
	m.errText = ""
	m.result = nil
	m.status = "Processing URL..."
	ctx, ctrl, sess := m.ctx, m.ctrl, m.sess
	return func() tea.Msg {
		snap, err := ctrl.SubmitURL(ctx, sess, rawURL)
		return urlProcessedMsg{seq: seq, snap: snap, err: err}
	}
}

func (m *Model) beginAsk(question string) tea.Cmd {
	m.seq++
	seq := m.seq
	m.busy = true
	m.errText = ""
	m.status = "Thinking..."
	ctx, ctrl, sess := m.ctx, m.ctrl, m.sess
	return func() tea.Msg {
		res, err := ctrl.Ask(ctx, sess, question)
		return answerMsg{seq: seq, result: res, err: err}
	}
}

func (m *Model) clearURL() {
	m.seq++
	m.busy = false
	m.snap = m.ctrl.ClearURL(m.sess)
	m.result = nil
	m.errText = ""
	m.url.SetValue("")
	m.question.SetValue("")
	m.status = "Please enter a new URL to process."
	m.setFocus(focusURL)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusURL {
		m.question.Blur()
		m.url.Focus()
	} else {
		m.url.Blur()
		m.question.Focus()
	}
}

// Update handles key, window and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 2*(1+ih) + 2 + 1 // header, two inputs, status and error, help
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case urlProcessedMsg:
		if msg.seq != m.seq || errors.Is(msg.err, session.ErrStale) {
			return m, nil
		}
		m.busy = false
		m.snap = msg.snap
		if msg.err != nil {
			m.status = "Please check the URL and try again."
			m.errText = msg.snap.Error
			if m.errText == "" {
				m.errText = "Failed to process URL: " + msg.err.Error()
			}
		} else {
			m.status = "URL processed successfully!"
			m.setFocus(focusQuestion)
		}
		m.refresh()
		return m, nil

	case answerMsg:
		if msg.seq != m.seq || errors.Is(msg.err, session.ErrStale) {
			return m, nil
		}
		m.busy = false
		m.snap = m.sess.Snapshot()
		if msg.err != nil {
			m.status = "Ready."
			m.errText = m.snap.Error
			if m.errText == "" {
				m.errText = "Error processing question: " + msg.err.Error()
			}
		} else {
			m.status = "Answer:"
			m.result = msg.result
			m.cursor = 0
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab:
			if m.focus == focusURL {
				m.setFocus(focusQuestion)
			} else {
				m.setFocus(focusURL)
			}
			return m, nil
		case tea.KeyCtrlR:
			if m.mode == viewAnswer {
				m.mode = viewPassages
			} else {
				m.mode = viewAnswer
			}
			m.refresh()
			return m, nil
		case tea.KeyEsc:
			if m.focus == focusURL && strings.TrimSpace(m.url.Value()) == "" {
				m.clearURL()
				m.refresh()
				return m, nil
			}
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyDown, tea.KeyUp:
			if m.mode == viewPassages && m.result != nil && len(m.result.Chunks) > 0 {
				n := len(m.result.Chunks)
				if msg.Type == tea.KeyDown {
					m.cursor = (m.cursor + 1) % n
				} else {
					m.cursor = (m.cursor - 1 + n) % n
				}
				m.refresh()
				return m, nil
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.focus == focusURL {
		m.url, cmd = m.url.Update(msg)
	} else {
		m.question, cmd = m.question.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.focus == focusURL {
		rawURL := strings.TrimSpace(m.url.Value())
		if rawURL == "" {
			if m.snap.URL != "" {
				m.clearURL()
				m.refresh()
			}
			return m, nil
		}
		if rawURL == m.snap.URL && m.snap.State == session.StateReady {
			m.setFocus(focusQuestion)
			return m, nil
		}
		cmd := m.beginSubmit(rawURL)
		m.snap.State = session.StateProcessing
		m.refresh()
		return m, tea.Batch(cmd, m.spinner.Tick)
	}

	q := strings.TrimSpace(m.question.Value())
	if q == "" {
		return m, nil
	}
	if m.busy {
		m.status = "Please wait for the current request to finish."
		return m, nil
	}
	if m.snap.State != session.StateReady {
		m.status = "Please enter a URL to process."
		return m, nil
	}
	cmd := m.beginAsk(q)
	m.snap.State = session.StateAnswering
	m.refresh()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("RAG with web search")
	if m.snap.Title != "" {
		header += "  " + dimStyle.Render(m.snap.Title)
	}
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(inputBoxStyle.Render(m.url.View()) + "\n")
	b.WriteString(inputBoxStyle.Render(m.question.View()) + "\n")
	b.WriteString(resultBoxStyle.Render(m.viewport.View()) + "\n")
	b.WriteString(statusStyle.Render(status) + "\n")
	b.WriteString(errorStyle.Render(m.errText) + "\n")
	b.WriteString(dimStyle.Render("enter submit • tab switch input • ctrl+r answer/passages • esc clear url • ctrl+c quit"))
	return b.String()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

func (m Model) renderBody() string {
	wrap := lipgloss.NewStyle().Width(max(20, m.viewport.Width))
	if m.result == nil {
		if m.snap.State == session.StateReady && m.snap.Summary != "" {
			return wrap.Render(fmt.Sprintf("%s\n\n%s", labelStyle.Render("Page summary:"), m.snap.Summary))
		}
		return "No answer yet."
	}
	if m.mode == viewAnswer {
		return wrap.Render(labelStyle.Render("Q: "+m.result.Question) + "\n\n" + m.result.Answer)
	}
	return wrap.Render(m.renderPassage())
}

func (m Model) renderPassage() string {
	r := m.result
	var b strings.Builder
	if len(r.Chunks) == 0 {
		b.WriteString("No passages retrieved.")
	} else {
		c := r.Chunks[m.cursor]
		b.WriteString(labelStyle.Render(fmt.Sprintf("Passage %d/%d  score=%.3f", m.cursor+1, len(r.Chunks), c.Score)))
		b.WriteString("\n\n" + highlightBestSentence(c.Chunk.Text, r.Question))
	}
	b.WriteString("\n\n" + labelStyle.Render("Web search:") + "\n")
	if r.Snippet == "" {
		b.WriteString(dimStyle.Render("(no result)"))
	} else {
		b.WriteString(r.Snippet)
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	labelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// highlightBestSentence emphasises the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 || len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	bestIdx, bestScore := 0, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestScore > 0 {
		sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
