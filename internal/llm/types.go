package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

type Message struct {
	Role    string
	Content string
}

type ChatResponse struct {
	Content    string
	StopReason string
	Usage      *Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type LLM interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (*ChatResponse, error)
	Provider() string
	Model() string
}
