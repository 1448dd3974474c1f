package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewDefaultsToOllama(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Provider() != "ollama" {
		t.Errorf("expected ollama provider, got %s", m.Provider())
	}
	if m.Model() != DefaultOllamaModel {
		t.Errorf("expected model %s, got %s", DefaultOllamaModel, m.Model())
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewCompatibleProvider(t *testing.T) {
	m, err := New(Config{Provider: "groq", Model: "llama-3.1-8b-instant"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Provider() != "groq" {
		t.Errorf("expected groq, got %s", m.Provider())
	}
}

func TestIsKnownProvider(t *testing.T) {
	for _, p := range KnownProviders() {
		if !IsKnownProvider(p) {
			t.Errorf("%s should be known", p)
		}
	}
	if IsKnownProvider("acme") {
		t.Error("acme should not be known")
	}
}

func TestOpenAICompatibleChat(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama3",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "¡Hola!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	m, err := New(Config{Provider: "ollama", BaseURL: srv.URL, Temperature: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := m.Chat(context.Background(), "eres un asistente", []Message{
		{Role: RoleUser, Content: "hola"},
		{Role: RoleAssistant, Content: "buenas"},
		{Role: RoleUser, Content: "¿qué tal?"},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if resp.Content != "¡Hola!" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	if got.Model != "llama3" {
		t.Errorf("expected model llama3, got %s", got.Model)
	}
	if len(got.Messages) != 4 {
		t.Fatalf("expected system + 3 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "eres un asistente" {
		t.Errorf("system prompt not sent first: %+v", got.Messages[0])
	}
	if got.Messages[2].Role != "assistant" {
		t.Errorf("expected assistant role, got %s", got.Messages[2].Role)
	}
}

func TestOpenAICompatibleRetriesServerErrors(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": {"message": "busy", "type": "server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer srv.Close()

	m, _ := New(Config{Provider: "openai", BaseURL: srv.URL, APIKey: "k"})

	resp, err := m.Chat(context.Background(), "", []Message{{Role: RoleUser, Content: "hola"}})
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestOpenAICompatibleClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	m, _ := New(Config{Provider: "openai", BaseURL: srv.URL, APIKey: "k"})

	if _, err := m.Chat(context.Background(), "", []Message{{Role: RoleUser, Content: "hola"}}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("client errors should not be retried, got %d calls", calls.Load())
	}
}

func TestClaudeChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Claro."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	m, err := New(Config{Provider: "claude", APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := m.Chat(context.Background(), "sistema", []Message{{Role: RoleUser, Content: "hola"}})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if resp.Content != "Claro." {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 12 {
		t.Errorf("expected 12 tokens, got %d", resp.Usage.TotalTokens)
	}
}
