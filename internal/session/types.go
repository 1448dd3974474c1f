package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bowerhall/rumbo/internal/conversation"
)

var ErrNotFound = errors.New("session not found")

// Store maps session ids to conversation state.
type Store interface {
	// Resume returns the stored state or ErrNotFound.
	Resume(ctx context.Context, id string) (conversation.State, error)
	// Create stores a new session seeded with one human message. An empty
	// id mints a fresh one.
	Create(ctx context.Context, id, seed string) (string, conversation.State, error)
	// Persist replaces the stored state. Last writer wins.
	Persist(ctx context.Context, id string, state conversation.State) error
}

type record struct {
	state      conversation.State
	lastActive time.Time
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*record
	now      func() time.Time
}
