package bot

import (
	"context"

	"github.com/bowerhall/rumbo/internal/assistant"
)

type Bot interface {
	Start(ctx context.Context) error
	Name() string
}

// Assistant is the orchestrator surface the chat frontends drive.
type Assistant interface {
	SubmitUtterance(ctx context.Context, sessionID, message string) (*assistant.Reply, error)
	SubmitDecision(ctx context.Context, approvalID string, approved bool) (*assistant.Reply, error)
}

type Config struct {
	Provider string
	Token    string
}

// outgoing is a frontend-neutral reply. A non-empty ApprovalID asks the
// frontend to attach approve/reject buttons.
type outgoing struct {
	Text       string
	ApprovalID string
}
