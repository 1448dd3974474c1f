package agent

import (
	"context"
	"time"

	"github.com/bowerhall/rumbo/internal/budget"
	"github.com/bowerhall/rumbo/internal/llm"
	"github.com/bowerhall/rumbo/internal/router"
)

type Node int

const (
	Start Node = iota
	Generate
	ExecuteTools
	RequestApproval
	Terminal
)

func (n Node) String() string {
	switch n {
	case Start:
		return "start"
	case Generate:
		return "generate"
	case ExecuteTools:
		return "execute_tools"
	case RequestApproval:
		return "request_approval"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// CityExtractor finds a confirmed city name in an utterance.
type CityExtractor interface {
	Extract(ctx context.Context, utterance string) (string, bool)
}

// WeatherResolver returns a formatted weather summary for a city.
type WeatherResolver interface {
	Resolve(ctx context.Context, city string) (string, error)
}

// ActivityRecommender returns a formatted list of things to do in a city.
type ActivityRecommender interface {
	Recommend(ctx context.Context, city, interest string) (string, error)
}

type Config struct {
	SystemPrompt   string
	ModelTimeout   time.Duration
	ExtractTimeout time.Duration
	ToolTimeout    time.Duration
}

// Agent runs the per-turn conversation state machine. It holds no session
// state: every call takes a state value and returns a new one.
type Agent struct {
	llm          llm.LLM
	cities       CityExtractor
	weather      WeatherResolver
	activities   ActivityRecommender
	budget       *budget.Tracker
	systemPrompt string
	modelTimeout time.Duration
	extractTO    time.Duration
	toolTimeout  time.Duration
}

// Outcome describes how a turn was routed.
type Outcome struct {
	Decision router.Decision
	Keyword  string
	Path     []Node
	Tool     string
	ToolErr  error
}
