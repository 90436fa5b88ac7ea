package session

import "sync"

// Store keeps independent sessions keyed by ID for the HTTP surface.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ctrl     *Controller
}

func NewStore(ctrl *Controller) *Store {
	return &Store{sessions: make(map[string]*Session), ctrl: ctrl}
}

func (st *Store) Create() *Session {
	s := New()
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes the session and releases its index.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		st.ctrl.ClearURL(s)
	}
	return ok
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close clears every session.
func (st *Store) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, s := range sessions {
		st.ctrl.ClearURL(s)
	}
}
