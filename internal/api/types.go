package api

import (
	"context"

	"github.com/bowerhall/rumbo/internal/approval"
	"github.com/bowerhall/rumbo/internal/assistant"
)

// Assistant is the orchestrator surface the HTTP layer drives.
type Assistant interface {
	SubmitUtterance(ctx context.Context, sessionID, message string) (*assistant.Reply, error)
	SubmitApproval(ctx context.Context, sessionID string, approved bool) (*assistant.Reply, error)
	PendingApprovals() []approval.PendingApproval
	Stats() assistant.Stats
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ApprovalRequest struct {
	SessionID string `json:"session_id"`
	Approved  bool   `json:"approved"`
}

// HistoryEntry mirrors a transcript message; Type is human, ai or system.
type HistoryEntry struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type MessageResponse struct {
	SessionID        string         `json:"session_id"`
	Response         string         `json:"response"`
	RequiresApproval bool           `json:"requires_approval"`
	ApprovalID       string         `json:"approval_id,omitempty"`
	FullHistory      []HistoryEntry `json:"full_history"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ApprovalInfo struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type BudgetStatus struct {
	Used      int     `json:"used_tokens"`
	Limit     int     `json:"limit_tokens"`
	Requests  int     `json:"requests"`
	CostUSD   float64 `json:"cost_usd"`
	Exhausted bool    `json:"exhausted"`
}

type StatusResponse struct {
	Hostname         string        `json:"hostname"`
	OS               string        `json:"os"`
	Arch             string        `json:"arch"`
	Uptime           string        `json:"uptime"`
	CPUUsage         float64       `json:"cpu_usage_percent"`
	MemTotal         uint64        `json:"mem_total_bytes"`
	MemUsed          uint64        `json:"mem_used_bytes"`
	MemUsage         float64       `json:"mem_usage_percent"`
	Sessions         int           `json:"sessions"`
	PendingApprovals int           `json:"pending_approvals"`
	Budget           *BudgetStatus `json:"budget,omitempty"`
}
