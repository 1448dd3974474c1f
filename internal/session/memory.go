package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bowerhall/rumbo/internal/conversation"
	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/google/uuid"
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*record),
		now:      time.Now,
	}
}

func (s *MemoryStore) Resume(ctx context.Context, id string) (conversation.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return conversation.State{}, fmt.Errorf("resume %q: %w", id, ErrNotFound)
	}
	return rec.state.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, id, seed string) (string, conversation.State, error) {
	if id == "" {
		id = uuid.NewString()
	}

	state := conversation.New(seed)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		return "", conversation.State{}, fmt.Errorf("session %q already exists", id)
	}
	s.sessions[id] = &record{state: state.Clone(), lastActive: s.now()}

	logger.Info("session created", "session", id)
	return id, state, nil
}

func (s *MemoryStore) Persist(ctx context.Context, id string, state conversation.State) error {
	if state.Empty() {
		return fmt.Errorf("persist %q: empty transcript", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &record{state: state.Clone(), lastActive: s.now()}
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than idle and returns the ids
// that were dropped.
func (s *MemoryStore) Sweep(idle time.Duration) []string {
	if idle <= 0 {
		return nil
	}

	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, rec := range s.sessions {
		if rec.lastActive.Before(cutoff) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}
