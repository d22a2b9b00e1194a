package ui

import (
	"sync"
	"time"

	"mixaudit/domain/analysis"
	"mixaudit/domain/core"
	"mixaudit/domain/feed"
)

const sessionCookie = "mixaudit_session"

// session holds one visitor's uploaded table and their latest run.
// Sessions never share state: every run recomputes from the session's
// own immutable table.
type session struct {
	ID        core.SessionID
	Filename  string
	Table     feed.RawTable
	Records   []feed.IngredientRecord
	Operators []string
	FoodTypes []string
	DietNames []string
	SpanStart core.Day
	SpanEnd   core.Day
	CreatedAt time.Time

	mu     sync.Mutex
	result *analysis.AnalysisResult
}

func (s *session) SetResult(r *analysis.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
}

func (s *session) Result() *analysis.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SessionStore keeps live sessions in memory, keyed by session ID
type SessionStore struct {
	sessions sync.Map
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Put registers a session
func (st *SessionStore) Put(s *session) {
	st.sessions.Store(s.ID.String(), s)
}

// Get returns the session for an ID if it is still live
func (st *SessionStore) Get(id string) (*session, bool) {
	v, ok := st.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*session), true
}

// Delete drops a session
func (st *SessionStore) Delete(id string) {
	st.sessions.Delete(id)
}

// Sweep drops sessions older than maxAge and reports how many went
func (st *SessionStore) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	dropped := 0
	st.sessions.Range(func(key, value interface{}) bool {
		if value.(*session).CreatedAt.Before(cutoff) {
			st.sessions.Delete(key)
			dropped++
		}
		return true
	})
	return dropped
}
