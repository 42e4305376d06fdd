package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionStore holds in-progress checkout sessions. Sessions are transient
// point-of-sale state, never persisted; a restart abandons them.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (st *sessionStore) open() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
	s.reset()
	s.UpdatedAt = s.CreatedAt
	st.sessions[s.ID] = s
	return snapshot(s)
}

func (st *sessionStore) get(id uuid.UUID) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(s), nil
}

// update runs fn on the stored session under the store lock. fn returning an
// error leaves the session untouched only if fn itself did not mutate it, so
// fn must validate before mutating.
func (st *sessionStore) update(id uuid.UUID, fn func(*Session) error) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()
	return snapshot(s), nil
}

func (st *sessionStore) close(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func snapshot(s *Session) *Session {
	cp := *s
	cp.Lines = append([]CartLine(nil), s.Lines...)
	return &cp
}
