package conversation

type Role string

// Role values double as the wire names used in chat history payloads.
const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "ai"
	RoleSystem    Role = "system"
)

type Message struct {
	Role    Role
	Content string
}

// State is the per-session transcript plus the approval flag. Values are
// treated as immutable: every operation returns a new State.
type State struct {
	Messages        []Message
	PendingApproval bool
}
