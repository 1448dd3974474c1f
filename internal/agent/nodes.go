package agent

import (
	"context"
	"errors"
	"time"

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

var (
	errNoCity   = errors.New("no city found in utterance")
	errNoIntent = errors.New("no tool intent in utterance")
)

// Generate drafts a reply from the model and appends it. Model failures
// append an apology notice instead so the turn still completes.
func (a *Agent) Generate(ctx context.Context, state conversation.State) conversation.State {
	ctx, span := telemetry.StartSpan(ctx, "agent.generate",
		trace.WithAttributes(attribute.String("provider", a.llm.Provider())))
	defer span.End()

	state = state.WithPendingApproval(false)

	if a.budget != nil && a.budget.Exhausted() {
		logger.Warn("daily budget exhausted, skipping model call")
		span.SetAttributes(attribute.Bool("budget_exhausted", true))
		return state.Append(conversation.RoleAssistant, BudgetNotice)
	}

	ctx, cancel := context.WithTimeout(ctx, a.modelTimeout)
	defer cancel()

	resp, err := a.llm.Chat(ctx, a.systemPrompt, toModelMessages(state.Messages))
	metrics.RecordModelCall(a.llm.Provider(), err)
	if err != nil {
		logger.Error("model generation failed", "provider", a.llm.Provider(), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return state.Append(conversation.RoleAssistant, ModelErrorNotice)
	}

	if resp.Usage != nil && a.budget != nil {
		a.budget.Record(a.llm.Provider(), a.llm.Model(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	logger.Debug("draft generated", "chars", len(resp.Content))
	return state.Append(conversation.RoleAssistant, resp.Content)
}

// ExecuteTools re-reads the latest human message, calls the matching tool
// and supersedes the draft answer with its output. On any failure the
// transcript is returned unchanged apart from the cleared approval flag.
func (a *Agent) ExecuteTools(ctx context.Context, state conversation.State) conversation.State {
	state, _, _ = a.executeTools(ctx, state)
	return state
}

func (a *Agent) executeTools(ctx context.Context, state conversation.State) (conversation.State, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "agent.execute_tools")
	defer span.End()

	state = state.WithPendingApproval(false)

	msg, ok := state.LastHuman()
	if !ok {
		return state.Append(conversation.RoleAssistant, NoHumanNotice), "", nil
	}

	intent := router.DetectToolIntent(msg.Content)
	tool := intent.String()
	span.SetAttributes(attribute.String("tool", tool))

	if intent == router.NoToolIntent {
		logger.Debug("no tool intent, keeping draft")
		return state, tool, errNoIntent
	}

	start := time.Now()

	city, ok := a.extractCity(ctx, msg.Content)
	if !ok {
		logger.Warn("city extraction failed, keeping draft", "tool", tool)
		metrics.RecordToolCall(tool, metrics.StatusSkipped, time.Since(start))
		return state, tool, errNoCity
	}
	span.SetAttributes(attribute.String("city", city))

	toolCtx, cancel := context.WithTimeout(ctx, a.toolTimeout)
	defer cancel()

	var output string
	var err error
	switch intent {
	case router.WeatherIntent:
		output, err = a.weather.Resolve(toolCtx, city)
	case router.ActivitiesIntent:
		interest := router.DetectInterest(msg.Content)
		span.SetAttributes(attribute.String("interest", interest))
		output, err = a.activities.Recommend(toolCtx, city, interest)
	}

	if err != nil {
		logger.Warn("tool failed, keeping draft", "tool", tool, "city", city, "error", err)
		metrics.RecordToolCall(tool, metrics.StatusError, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool failed")
		return state, tool, err
	}

	metrics.RecordToolCall(tool, metrics.StatusSuccess, time.Since(start))
	logger.Debug("tool output replaces draft", "tool", tool, "city", city)
	return state.SupersedeLastAssistant(output), tool, nil
}

func (a *Agent) extractCity(ctx context.Context, utterance string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.extractTO)
	defer cancel()
	return a.cities.Extract(ctx, utterance)
}

// RequestApproval appends the waiting notice and marks the session as
// blocked on a human decision.
func (a *Agent) RequestApproval(ctx context.Context, state conversation.State) conversation.State {
	_, span := telemetry.StartSpan(ctx, "agent.request_approval")
	defer span.End()

	metrics.RecordApproval(metrics.ApprovalRequested)
	return state.Append(conversation.RoleAssistant, ApprovalNotice).WithPendingApproval(true)
}

func toModelMessages(msgs []conversation.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleHuman:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case conversation.RoleAssistant:
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	return out
}
