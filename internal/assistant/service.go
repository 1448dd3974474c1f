package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bowerhall/rumbo/internal/agent"
	"github.com/bowerhall/rumbo/internal/approval"
	"github.com/bowerhall/rumbo/internal/conversation"
	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bowerhall/rumbo/internal/metrics"
	"github.com/bowerhall/rumbo/internal/session"
)

var (
	ErrSessionNotFound = session.ErrNotFound
	ErrEmptyMessage    = errors.New("message is empty")
)

// text fallback for clients that only look at the reply body
const awaitingApprovalMarker = "esperando aprobación"

// Machine is the per-turn state machine driven by the service.
type Machine interface {
	Run(ctx context.Context, state conversation.State) (conversation.State, agent.Outcome, error)
	Resume(state conversation.State, approved bool) conversation.State
}

// Reply is returned for every utterance and approval decision.
type Reply struct {
	SessionID        string
	Response         string
	RequiresApproval bool
	ApprovalID       string
	History          []conversation.Message
}

// Service is the single writer of the session store. Turns on the same
// session are serialized; different sessions run in parallel.
type Service struct {
	machine   Machine
	sessions  session.Store
	approvals *approval.Manager
	locks     sync.Map
	counter   func() int
}

func New(machine Machine, sessions session.Store, approvals *approval.Manager) *Service {
	if approvals == nil {
		approvals = approval.NewManager()
	}
	return &Service{machine: machine, sessions: sessions, approvals: approvals}
}

// SetSessionCounter reports the store size to metrics after each turn.
func (s *Service) SetSessionCounter(fn func() int) {
	s.counter = fn
}

// SubmitUtterance resumes or creates the session, runs one turn and
// persists the result.
func (s *Service) SubmitUtterance(ctx context.Context, sessionID, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	if sessionID != "" {
		unlock := s.lock(sessionID)
		defer unlock()
	}

	state, err := s.sessions.Resume(ctx, sessionID)
	switch {
	case err == nil:
		logger.Debug("session resumed", "session", sessionID, "messages", len(state.Messages))
		state = state.Append(conversation.RoleHuman, message)
	case errors.Is(err, session.ErrNotFound):
		sessionID, state, err = s.sessions.Create(ctx, sessionID, message)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	default:
		return nil, fmt.Errorf("resume session: %w", err)
	}

	state, outcome, err := s.machine.Run(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("run turn: %w", err)
	}

	if err := s.sessions.Persist(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	// a new utterance supersedes any outstanding approval
	if pending, ok := s.approvals.Resolve(sessionID); ok {
		logger.Info("pending approval superseded by new message", "session", sessionID, "approval", pending.ID)
		metrics.RecordApproval(metrics.ApprovalCancelled)
	}

	var approvalID string
	if state.PendingApproval {
		approvalID = s.approvals.Start(sessionID, message)
	}
	s.updateGauges()

	logger.Info("turn completed", "session", sessionID, "decision", outcome.Decision, "pending_approval", state.PendingApproval)

	reply := buildReply(sessionID, state)
	reply.ApprovalID = approvalID
	return reply, nil
}

// SubmitApproval applies an approve/reject decision to a session.
func (s *Service) SubmitApproval(ctx context.Context, sessionID string, approved bool) (*Reply, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.sessions.Resume(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !state.PendingApproval {
		logger.Warn("approval decision for session with nothing pending", "session", sessionID)
	}

	state = s.machine.Resume(state, approved)

	if err := s.sessions.Persist(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.approvals.Resolve(sessionID)
	if approved {
		metrics.RecordApproval(metrics.ApprovalApproved)
	} else {
		metrics.RecordApproval(metrics.ApprovalRejected)
	}
	s.updateGauges()

	logger.Info("approval applied", "session", sessionID, "approved", approved)

	reply := buildReply(sessionID, state)
	reply.RequiresApproval = false
	return reply, nil
}

// SubmitDecision resolves an approval by its short id, as used by chat
// frontend buttons.
func (s *Service) SubmitDecision(ctx context.Context, approvalID string, approved bool) (*Reply, error) {
	pending, err := s.approvals.Get(approvalID)
	if err != nil {
		return nil, err
	}
	return s.SubmitApproval(ctx, pending.SessionID, approved)
}

// Forget drops per-session bookkeeping for sessions the store has evicted.
// Their pending approvals are cancelled so decisions on them read as stale.
func (s *Service) Forget(sessionIDs ...string) {
	if len(sessionIDs) == 0 {
		return
	}

	for _, id := range sessionIDs {
		if pending, ok := s.approvals.ForSession(id); ok && s.approvals.Cancel(pending.ID) {
			logger.Info("pending approval dropped with evicted session", "session", id, "approval", pending.ID)
			metrics.RecordApproval(metrics.ApprovalCancelled)
		}
		s.locks.Delete(id)
	}
	s.updateGauges()
}

func (s *Service) PendingApprovals() []approval.PendingApproval {
	return s.approvals.Pending()
}

type Stats struct {
	Sessions         int
	PendingApprovals int
}

func (s *Service) Stats() Stats {
	st := Stats{PendingApprovals: s.approvals.Len()}
	if s.counter != nil {
		st.Sessions = s.counter()
	}
	return st
}

func (s *Service) lock(sessionID string) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) updateGauges() {
	metrics.SetPendingApprovals(s.approvals.Len())
	if s.counter != nil {
		metrics.SetActiveSessions(s.counter())
	}
}

func buildReply(sessionID string, state conversation.State) *Reply {
	var response string
	if msg, ok := state.LastAssistant(); ok {
		response = msg.Content
	}

	history := make([]conversation.Message, len(state.Messages))
	copy(history, state.Messages)

	return &Reply{
		SessionID:        sessionID,
		Response:         response,
		RequiresApproval: state.PendingApproval || strings.Contains(strings.ToLower(response), awaitingApprovalMarker),
		History:          history,
	}
}
