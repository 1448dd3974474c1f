package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bowerhall/rumbo/internal/budget"
	"github.com/bowerhall/rumbo/internal/conversation"
	"github.com/bowerhall/rumbo/internal/llm"
	"github.com/bowerhall/rumbo/internal/router"
)

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastSys  string
	lastMsgs []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.lastSys = systemPrompt
	f.lastMsgs = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{
		Content: f.reply,
		Usage:   &llm.Usage{PromptTokens: 40, CompletionTokens: 10, TotalTokens: 50},
	}, nil
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-model" }

type fakeCities struct {
	city  string
	calls int
}

func (f *fakeCities) Extract(ctx context.Context, utterance string) (string, bool) {
	f.calls++
	return f.city, f.city != ""
}

type fakeWeather struct {
	err      error
	lastCity string
}

func (f *fakeWeather) Resolve(ctx context.Context, city string) (string, error) {
	f.lastCity = city
	if f.err != nil {
		return "", f.err
	}
	return "Clima en " + city + ": Cielo claro, 21.5°C.", nil
}

type fakeActivities struct {
	err          error
	lastCity     string
	lastInterest string
}

func (f *fakeActivities) Recommend(ctx context.Context, city, interest string) (string, error) {
	f.lastCity = city
	f.lastInterest = interest
	if f.err != nil {
		return "", f.err
	}
	return "Recomendaciones de " + interest + " en " + city + ":", nil
}

type fixture struct {
	llm        *fakeLLM
	cities     *fakeCities
	weather    *fakeWeather
	activities *fakeActivities
	agent      *Agent
}

func newFixture(city string) *fixture {
	f := &fixture{
		llm:        &fakeLLM{reply: "borrador del modelo"},
		cities:     &fakeCities{city: city},
		weather:    &fakeWeather{},
		activities: &fakeActivities{},
	}
	f.agent = New(f.llm, f.cities, f.weather, f.activities, Config{})
	return f
}

func lastAssistant(t *testing.T, s conversation.State) string {
	t.Helper()
	msg, ok := s.LastAssistant()
	if !ok {
		t.Fatal("expected an assistant message")
	}
	return msg.Content
}

func TestNextTransitions(t *testing.T) {
	cases := []struct {
		from     Node
		decision router.Decision
		want     Node
	}{
		{Start, router.Reply, Generate},
		{Start, router.RequestApproval, Generate},
		{Generate, router.Reply, Terminal},
		{Generate, router.NoHuman, Terminal},
		{Generate, router.ExecuteTools, ExecuteTools},
		{Generate, router.RequestApproval, RequestApproval},
		{ExecuteTools, router.ExecuteTools, Terminal},
		{RequestApproval, router.RequestApproval, Terminal},
		{Terminal, router.Reply, Terminal},
	}

	for _, tc := range cases {
		if got := Next(tc.from, tc.decision); got != tc.want {
			t.Errorf("Next(%s, %s) = %s, want %s", tc.from, tc.decision, got, tc.want)
		}
	}
}

func TestRunWeatherScenario(t *testing.T) {
	f := newFixture("Roma")

	state, out, err := f.agent.Run(context.Background(), conversation.New("¿qué tiempo hace en Roma?"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := lastAssistant(t, state); got != "Clima en Roma: Cielo claro, 21.5°C." {
		t.Errorf("expected weather output, got %q", got)
	}
	if state.PendingApproval {
		t.Error("expected no pending approval")
	}
	if len(state.Messages) != 2 {
		t.Errorf("tool output should supersede the draft, got %d messages", len(state.Messages))
	}
	if out.Decision != router.ExecuteTools || out.Tool != "weather" {
		t.Errorf("unexpected outcome %+v", out)
	}

	wantPath := []Node{Generate, ExecuteTools, Terminal}
	if len(out.Path) != len(wantPath) {
		t.Fatalf("expected path %v, got %v", wantPath, out.Path)
	}
	for i := range wantPath {
		if out.Path[i] != wantPath[i] {
			t.Errorf("path[%d] = %s, want %s", i, out.Path[i], wantPath[i])
		}
	}
}

func TestRunActivitiesDetectsInterest(t *testing.T) {
	f := newFixture("Lima")

	state, _, err := f.agent.Run(context.Background(), conversation.New("recomienda actividades de gastronomía en Lima"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if f.activities.lastInterest != "gastronomia" {
		t.Errorf("expected gastronomia, got %q", f.activities.lastInterest)
	}
	if got := lastAssistant(t, state); got != "Recomendaciones de gastronomia en Lima:" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRunActivitiesDefaultInterest(t *testing.T) {
	f := newFixture("Lisboa")

	f.agent.Run(context.Background(), conversation.New("¿qué lugares visitar en Lisboa?"))

	if f.activities.lastInterest != router.DefaultInterest {
		t.Errorf("expected default interest, got %q", f.activities.lastInterest)
	}
}

func TestRunCityNotFoundKeepsDraft(t *testing.T) {
	f := newFixture("")

	state, out, err := f.agent.Run(context.Background(), conversation.New("¿qué tiempo hace?"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := lastAssistant(t, state); got != "borrador del modelo" {
		t.Errorf("draft should be unchanged, got %q", got)
	}
	if out.ToolErr == nil {
		t.Error("expected tool error to be reported in outcome")
	}
	if f.weather.lastCity != "" {
		t.Error("weather should not be called without a city")
	}
}

func TestRunToolErrorKeepsDraft(t *testing.T) {
	f := newFixture("Roma")
	f.weather.err = errors.New("openweather returned 500")

	state, _, err := f.agent.Run(context.Background(), conversation.New("clima en Roma"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := lastAssistant(t, state); got != "borrador del modelo" {
		t.Errorf("draft should be unchanged, got %q", got)
	}
}

func TestRunToolPrecedenceOverApproval(t *testing.T) {
	f := newFixture("Roma")

	state, out, err := f.agent.Run(context.Background(), conversation.New("quiero reservar un hotel, ¿qué clima hace en Roma?"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if out.Decision != router.ExecuteTools {
		t.Errorf("expected ExecuteTools, got %s", out.Decision)
	}
	if state.PendingApproval {
		t.Error("tool turn must not request approval")
	}
}

func TestRunApprovalScenario(t *testing.T) {
	f := newFixture("")

	state, out, err := f.agent.Run(context.Background(), conversation.New("quiero reservar un hotel"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !state.PendingApproval {
		t.Error("expected pending approval")
	}
	if got := lastAssistant(t, state); got != ApprovalNotice {
		t.Errorf("expected approval notice, got %q", got)
	}
	// draft is kept before the notice
	if len(state.Messages) != 3 || state.Messages[1].Content != "borrador del modelo" {
		t.Errorf("unexpected transcript %+v", state.Messages)
	}
	if out.Decision != router.RequestApproval {
		t.Errorf("expected RequestApproval, got %s", out.Decision)
	}
}

func TestRunReply(t *testing.T) {
	f := newFixture("")

	state, out, err := f.agent.Run(context.Background(), conversation.New("hola"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := lastAssistant(t, state); got != "borrador del modelo" {
		t.Errorf("expected model reply, got %q", got)
	}
	if out.Decision != router.Reply {
		t.Errorf("expected Reply, got %s", out.Decision)
	}
	if f.cities.calls != 0 {
		t.Error("reply turn should not extract cities")
	}
}

func TestRunSendsSystemPromptAndHistory(t *testing.T) {
	f := newFixture("")

	s := conversation.New("hola").
		Append(conversation.RoleAssistant, "¡Hola!").
		Append(conversation.RoleHuman, "quiero ir a Perú")

	f.agent.Run(context.Background(), s)

	if f.llm.lastSys != DefaultSystemPrompt {
		t.Errorf("unexpected system prompt %q", f.llm.lastSys)
	}
	if len(f.llm.lastMsgs) != 3 {
		t.Fatalf("expected full history, got %d messages", len(f.llm.lastMsgs))
	}
	if f.llm.lastMsgs[1].Role != llm.RoleAssistant {
		t.Errorf("expected assistant role, got %s", f.llm.lastMsgs[1].Role)
	}
}

func TestRunGenerateClearsPendingApproval(t *testing.T) {
	f := newFixture("")

	s := conversation.New("quiero reservar").
		Append(conversation.RoleAssistant, ApprovalNotice).
		WithPendingApproval(true).
		Append(conversation.RoleHuman, "mejor dime algo de Roma")

	state, _, _ := f.agent.Run(context.Background(), s)
	if state.PendingApproval {
		t.Error("a fresh reply turn should clear pending approval")
	}
}

func TestRunModelErrorAppendsNotice(t *testing.T) {
	f := newFixture("")
	f.llm.err = context.DeadlineExceeded

	state, _, err := f.agent.Run(context.Background(), conversation.New("hola"))
	if err != nil {
		t.Fatalf("model errors should be contained, got %v", err)
	}
	if got := lastAssistant(t, state); got != ModelErrorNotice {
		t.Errorf("expected error notice, got %q", got)
	}
}

func TestRunEmptyStateIsIncomplete(t *testing.T) {
	f := newFixture("")

	_, _, err := f.agent.Run(context.Background(), conversation.State{})
	if !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete, got %v", err)
	}
}

func TestRunNoHumanAppendsNotice(t *testing.T) {
	f := newFixture("")

	s := conversation.State{Messages: []conversation.Message{{Role: conversation.RoleAssistant, Content: "hola"}}}
	state, out, err := f.agent.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.Decision != router.NoHuman {
		t.Errorf("expected NoHuman, got %s", out.Decision)
	}
	if got := lastAssistant(t, state); got != NoHumanNotice {
		t.Errorf("expected no-human notice, got %q", got)
	}
}

func TestExecuteToolsWithoutDraftAppends(t *testing.T) {
	f := newFixture("Roma")

	state := f.agent.ExecuteTools(context.Background(), conversation.New("clima en Roma"))
	if len(state.Messages) != 2 {
		t.Fatalf("expected appended tool output, got %d messages", len(state.Messages))
	}
	if got := lastAssistant(t, state); got != "Clima en Roma: Cielo claro, 21.5°C." {
		t.Errorf("unexpected output %q", got)
	}
}

func TestExecuteToolsNoHuman(t *testing.T) {
	f := newFixture("Roma")

	state := f.agent.ExecuteTools(context.Background(), conversation.State{}.WithPendingApproval(true))
	if state.PendingApproval {
		t.Error("expected pending approval cleared")
	}
	if got := lastAssistant(t, state); got != NoHumanNotice {
		t.Errorf("expected no-human notice, got %q", got)
	}
}

func TestResume(t *testing.T) {
	f := newFixture("")

	s := conversation.New("quiero reservar").
		Append(conversation.RoleAssistant, ApprovalNotice).
		WithPendingApproval(true)

	approved := f.agent.Resume(s, true)
	if approved.PendingApproval {
		t.Error("expected pending approval cleared")
	}
	if got := lastAssistant(t, approved); got != ApprovedFeedback {
		t.Errorf("expected approval feedback, got %q", got)
	}

	rejected := f.agent.Resume(s, false)
	if got := lastAssistant(t, rejected); got != RejectedFeedback {
		t.Errorf("expected rejection feedback, got %q", got)
	}
	if f.llm.calls != 0 {
		t.Error("resume must not call the model")
	}
}

func TestGenerateRespectsBudget(t *testing.T) {
	f := newFixture("")
	tracker := budget.NewTracker(budget.Config{DailyLimit: 60, WarnAt: 0.8}, nil, nil)
	f.agent.SetBudget(tracker)

	first := f.agent.Generate(context.Background(), conversation.New("hola"))
	if got := lastAssistant(t, first); got != "borrador del modelo" {
		t.Fatalf("expected model reply, got %q", got)
	}
	if used, _ := tracker.Usage(); used != 50 {
		t.Errorf("expected 50 tokens recorded, got %d", used)
	}

	tracker.Add(20)
	second := f.agent.Generate(context.Background(), conversation.New("hola"))
	if got := lastAssistant(t, second); got != BudgetNotice {
		t.Errorf("expected budget notice, got %q", got)
	}
	if f.llm.calls != 1 {
		t.Errorf("expected model to be skipped, got %d calls", f.llm.calls)
	}
}

type slowLLM struct{ fakeLLM }

func (s *slowLLM) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (*llm.ChatResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGenerateTimeout(t *testing.T) {
	a := New(&slowLLM{}, &fakeCities{}, &fakeWeather{}, &fakeActivities{}, Config{ModelTimeout: 20 * time.Millisecond})

	state := a.Generate(context.Background(), conversation.New("hola"))
	if got := lastAssistant(t, state); got != ModelErrorNotice {
		t.Errorf("expected timeout to produce error notice, got %q", got)
	}
}
