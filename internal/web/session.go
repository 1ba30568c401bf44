package web

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tablekit/tablekit/internal/table"
)

// Session binds one table orchestrator to an API identifier. Each session
// owns independent pagination, sorting, filtering, selection, and expansion
// state over its dataset.
type Session struct {
	ID         string
	DatasetKey string
	ServerMode bool
	Table      *table.Table
	CreatedAt  time.Time

	mu        sync.Mutex
	updatedAt time.Time
}

// SessionStore holds live sessions. Safe for concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create registers a new session around the given orchestrator and returns it.
func (st *SessionStore) Create(datasetKey string, serverMode bool, tbl *table.Table) *Session {
	now := time.Now().UTC()
	sess := &Session{
		ID:         uuid.New().String(),
		DatasetKey: datasetKey,
		ServerMode: serverMode,
		Table:      tbl,
		CreatedAt:  now,
		updatedAt:  now,
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	return sess
}

// Get returns the session with the given id.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// Delete removes a session. Unknown ids are a no-op.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// All returns sessions ordered by creation time.
func (st *SessionStore) All() []*Session {
	st.mu.RLock()
	out := make([]*Session, 0, len(st.sessions))
	for _, sess := range st.sessions {
		out = append(out, sess)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live sessions.
func (st *SessionStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Touch updates the session's modification time. Safe for concurrent use.
func (sess *Session) Touch() {
	sess.mu.Lock()
	sess.updatedAt = time.Now().UTC()
	sess.mu.Unlock()
}

// Updated returns the session's last modification time.
func (sess *Session) Updated() time.Time {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.updatedAt
}
