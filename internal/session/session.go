package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"webrag/internal/domain"
	"webrag/internal/index"
)

// State is the lifecycle position of a session.
type State int

const (
	StateEmpty State = iota
	StateProcessing
	StateReady
	StateAnswering
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateProcessing:
		return "processing"
	case StateReady:
		return "ready"
	case StateAnswering:
		return "answering"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session is one user's URL, its index and the last exchange. The index is
// non-nil only while it was built from URL's content. Every URL change bumps
// Generation; work started under an older generation is discarded.
type Session struct {
	ID string

	mu         sync.Mutex
	url        string
	title      string
	summary    string
	index      *index.Index
	state      State
	generation uint64
	cancel     context.CancelFunc
	result     *domain.QueryResult
	errMsg     string
}

func New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Snapshot is a consistent, read-only copy of a session for display.
type Snapshot struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Title      string              `json:"title,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	State      State               `json:"state"`
	Generation uint64              `json:"generation"`
	Chunks     int                 `json:"chunks"`
	Result     *domain.QueryResult `json:"-"`
	Error      string              `json:"error,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.ID,
		URL:        s.url,
		Title:      s.title,
		Summary:    s.summary,
		State:      s.state,
		Generation: s.generation,
		Error:      s.errMsg,
	}
	if s.index != nil {
		snap.Chunks = s.index.Len()
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// Generation returns the current generation counter.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// resetLocked invalidates in-flight work and detaches the index. The caller
// closes the returned index after unlocking.
func (s *Session) resetLocked() *index.Index {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	old := s.index
	s.index = nil
	s.title = ""
	s.summary = ""
	s.result = nil
	s.errMsg = ""
	return old
}
