package dashboard

import (
	"sync"

	"github.com/couchcryptid/crime-dashboard/internal/lru"
	"github.com/google/uuid"
)

type session struct {
	mu    sync.Mutex
	state State
}

// Sessions keeps one State per browser session. The least recently used
// session is dropped once the store is full. Updates to one session are
// serialized; different sessions refresh concurrently.
type Sessions struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *session]
}

// NewSessions creates a store holding at most maxSessions sessions.
func NewSessions(maxSessions int) *Sessions {
	return &Sessions{cache: lru.New[string, *session](maxSessions)}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// Get returns the state of session id.
func (s *Sessions) Get(id string) (State, bool) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return State{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, true
}

// Update replaces the state of session id with the state fn returns, creating
// the session if needed. fn runs with the session locked, so concurrent
// updates to one session apply in order. The returned state is stored even
// when fn also returns an error.
func (s *Sessions) Update(id string, fn func(prev State) (State, error)) (State, error) {
	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, err := fn(sess.state)
	sess.state = next
	return next, err
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	return s.cache.Len()
}

func (s *Sessions) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cache.Get(id); ok {
		return sess
	}
	sess := &session{}
	s.cache.Put(id, sess)
	return sess
}
