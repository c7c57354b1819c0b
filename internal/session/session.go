// Package session holds one phone call's live state and the registry that
// owns every active call.
package session

import (
	"context"
	"sync"

	"github.com/apexai-labs/onyx/internal/domain"
)

// Phase is the lifecycle state of a call.
type Phase string

const (
	// PhaseCreated means the registry entry exists but no media has been
	// processed yet.
	PhaseCreated Phase = "created"
	// PhaseActive means at least one media event has been processed.
	PhaseActive Phase = "active"
	// PhaseClosed is terminal; the registry entry is gone and the stream
	// is closed.
	PhaseClosed Phase = "closed"
)

// Session is one call's mutable state: identity, ordered transcript, and
// lifecycle phase. It is created by the registry at stream start, mutated
// only by the pipeline while processing that call's events, and destroyed
// at stream stop.
type Session struct {
	id string

	mu         sync.Mutex
	transcript []domain.Turn
	phase      Phase

	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(id, systemPrompt string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:         id,
		transcript: []domain.Turn{{Role: domain.RoleSystem, Text: systemPrompt}},
		phase:      PhaseCreated,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ID returns the call-stream identifier assigned by the telephony layer.
func (s *Session) ID() string { return s.id }

// Context is canceled when the session closes, so adapter calls in flight
// for this call stop as soon as practical after teardown.
func (s *Session) Context() context.Context { return s.ctx }

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// MarkActive records that media processing has begun. It is a no-op on an
// already-active session and fails on a closed one.
func (s *Session) MarkActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return domain.ErrSessionClosed
	}
	s.phase = PhaseActive
	return nil
}

// Append adds a turn to the transcript. It fails on a closed session so a
// late-arriving adapter result can never write into a torn-down call.
func (s *Session) Append(role domain.Role, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return domain.ErrSessionClosed
	}
	s.transcript = append(s.transcript, domain.Turn{Role: role, Text: text})
	return nil
}

// Transcript returns a copy of the ordered transcript.
func (s *Session) Transcript() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// close transitions to PhaseClosed and cancels the session context.
// Idempotent; there is no transition out of PhaseClosed.
func (s *Session) close() {
	s.mu.Lock()
	s.phase = PhaseClosed
	s.mu.Unlock()
	s.cancel()
}
