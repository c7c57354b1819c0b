package session

import (
	"log/slog"
	"sync"

	"github.com/apexai-labs/onyx/internal/domain"
)

// Registry is the concurrent-safe mapping from call id to session. It owns
// creation and teardown; no other component mutates the mapping.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Create registers a new session seeded with the system prompt. It fails
// with domain.ErrDuplicateSession when the id is already active.
func (r *Registry) Create(id, systemPrompt string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, domain.ErrDuplicateSession
	}

	sess := newSession(id, systemPrompt)
	r.sessions[id] = sess
	r.logger.Info("session created", slog.String("stream_sid", id))
	return sess, nil
}

// Get returns the session for id, if present.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Remove closes and deletes the session for id. Removing an absent id is a
// no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		sess.close()
		r.logger.Info("session removed", slog.String("stream_sid", id))
	}
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll tears down every active session. Used during shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		sessions = append(sessions, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}
