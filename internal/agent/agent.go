package agent

import (
	"context"
	"errors"
	"time"

	"github.com/bowerhall/rumbo/internal/budget"
	"github.com/bowerhall/rumbo/internal/conversation"
	"github.com/bowerhall/rumbo/internal/llm"
	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bowerhall/rumbo/internal/metrics"
	"github.com/bowerhall/rumbo/internal/router"
	"github.com/bowerhall/rumbo/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrIncomplete means a turn finished without a usable transcript.
var ErrIncomplete = errors.New("state machine produced no usable transcript")

// guards against a transition table that never reaches Terminal
const maxSteps = 8

func New(model llm.LLM, cities CityExtractor, weather WeatherResolver, activities ActivityRecommender, cfg Config) *Agent {
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	return &Agent{
		llm:          model,
		cities:       cities,
		weather:      weather,
		activities:   activities,
		systemPrompt: prompt,
		modelTimeout: orDefault(cfg.ModelTimeout, 60*time.Second),
		extractTO:    orDefault(cfg.ExtractTimeout, 30*time.Second),
		toolTimeout:  orDefault(cfg.ToolTimeout, 90*time.Second),
	}
}

func (a *Agent) SetBudget(b *budget.Tracker) {
	a.budget = b
}

// Run drives one turn: Generate, then the node the router picks, then
// Terminal. The input must already hold the new human message.
func (a *Agent) Run(ctx context.Context, state conversation.State) (conversation.State, Outcome, error) {
	if state.Empty() {
		return state, Outcome{}, ErrIncomplete
	}

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "agent.turn",
		trace.WithAttributes(attribute.Int("messages", len(state.Messages))))
	defer span.End()

	var out Outcome
	node := Start

	for range maxSteps {
		node = Next(node, out.Decision)
		out.Path = append(out.Path, node)

		switch node {
		case Generate:
			state = a.Generate(ctx, state)
			out.Decision, out.Keyword = router.Route(state)
			logger.Debug("router decision", "decision", out.Decision, "keyword", out.Keyword)
		case ExecuteTools:
			state, out.Tool, out.ToolErr = a.executeTools(ctx, state)
		case RequestApproval:
			state = a.RequestApproval(ctx, state)
		case Terminal:
			if out.Decision == router.NoHuman {
				state = state.Append(conversation.RoleAssistant, NoHumanNotice)
			}
			if _, ok := state.LastAssistant(); !ok {
				span.SetStatus(codes.Error, "no assistant message")
				return state, out, ErrIncomplete
			}

			span.SetAttributes(
				attribute.String("decision", out.Decision.String()),
				attribute.Bool("pending_approval", state.PendingApproval),
			)
			metrics.RecordTurn(out.Decision.String(), time.Since(start))
			return state, out, nil
		}
	}

	span.SetStatus(codes.Error, "terminal not reached")
	return state, out, ErrIncomplete
}

// Resume applies an approval decision without re-entering Generate.
func (a *Agent) Resume(state conversation.State, approved bool) conversation.State {
	feedback := RejectedFeedback
	if approved {
		feedback = ApprovedFeedback
	}

	return state.Append(conversation.RoleAssistant, feedback).WithPendingApproval(false)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
