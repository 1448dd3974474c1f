package approval

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("approval not found")

// PendingApproval is a session blocked on a human approve/reject decision.
type PendingApproval struct {
	ID          string
	SessionID   string
	Description string
	CreatedAt   time.Time
}

// Manager indexes pending approvals by a short id so chat frontends can
// reference them from buttons. At most one approval is pending per session.
type Manager struct {
	pending   map[string]*PendingApproval
	bySession map[string]string
	mu        sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		pending:   make(map[string]*PendingApproval),
		bySession: make(map[string]string),
	}
}

// Start registers a pending approval for a session, replacing any earlier
// one, and returns its id.
func (m *Manager) Start(sessionID, description string) string {
	id := uuid.New().String()[:8]

	approval := &PendingApproval{
		ID:          id,
		SessionID:   sessionID,
		Description: description,
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	if old, ok := m.bySession[sessionID]; ok {
		delete(m.pending, old)
	}
	m.pending[id] = approval
	m.bySession[sessionID] = id
	m.mu.Unlock()

	logger.Info("approval started", "id", id, "session", sessionID)
	return id
}

func (m *Manager) Get(approvalID string) (PendingApproval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	approval, ok := m.pending[approvalID]
	if !ok {
		return PendingApproval{}, ErrNotFound
	}
	return *approval, nil
}

func (m *Manager) ForSession(sessionID string) (PendingApproval, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySession[sessionID]
	if !ok {
		return PendingApproval{}, false
	}
	return *m.pending[id], true
}

// Resolve removes the session's pending approval and reports whether one existed.
func (m *Manager) Resolve(sessionID string) (PendingApproval, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.bySession[sessionID]
	if !ok {
		return PendingApproval{}, false
	}

	approval := *m.pending[id]
	delete(m.pending, id)
	delete(m.bySession, sessionID)

	logger.Debug("approval resolved", "id", id, "session", sessionID, "age", time.Since(approval.CreatedAt))
	return approval, true
}

// Cancel drops an approval by id and reports whether it was pending.
func (m *Manager) Cancel(approvalID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	approval, ok := m.pending[approvalID]
	if !ok {
		return false
	}
	delete(m.bySession, approval.SessionID)
	delete(m.pending, approvalID)
	return true
}

// Pending lists all pending approvals, oldest first.
func (m *Manager) Pending() []PendingApproval {
	m.mu.RLock()
	list := make([]PendingApproval, 0, len(m.pending))
	for _, a := range m.pending {
		list = append(list, *a)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending)
}
