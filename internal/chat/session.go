package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"propmatch/internal/service"
)

// Session holds one conversation's history. Safe for concurrent use;
// the handler serializes turns per session, but count ticks and turns
// may touch the registry at the same time.
type Session struct {
	ID string

	mu      sync.Mutex
	history []service.ChatMessage
}

// History returns a copy of the conversation so far.
func (s *Session) History() []service.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]service.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Append records a completed exchange.
func (s *Session) Append(messages ...service.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, messages...)
}

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// Registry tracks chat sessions by ID. Sessions idle longer than the
// TTL are discarded, so client-supplied IDs cannot grow the registry
// without bound.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	ttl     time.Duration

	now func() time.Time
}

// NewRegistry creates an empty session registry with the given idle TTL.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: map[string]*sessionEntry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrCreate returns the session for the ID, creating it when absent
// or expired. An empty ID gets a fresh session with a generated ID.
// Every call touches the session and sweeps expired ones.
func (r *Registry) GetOrCreate(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	if e, ok := r.entries[id]; ok {
		e.lastSeen = now
		return e.session
	}
	s := &Session{ID: id}
	r.entries[id] = &sessionEntry{session: s, lastSeen: now}
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(r.now())
	return len(r.entries)
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.entries, id)
		}
	}
}
