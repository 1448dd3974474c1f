package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type openaiCompatible struct {
	client      *openai.Client
	provider    string
	model       string
	temperature float32
	maxTokens   int
}

func newOpenAICompatible(provider string, cfg Config) LLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &openaiCompatible{
		client:      openai.NewClientWithConfig(clientCfg),
		provider:    provider,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

func (o *openaiCompatible) Chat(ctx context.Context, systemPrompt string, messages []Message) (*ChatResponse, error) {
	var oaiMessages []openai.ChatCompletionMessage

	if systemPrompt != "" {
		oaiMessages = append(oaiMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		oaiMessages = append(oaiMessages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    oaiMessages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := range maxRetries {
		resp, err = o.client.CreateChatCompletion(ctx, req)
		if err == nil || !isRetryableOpenAIError(err) {
			break
		}
		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", o.provider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &ChatResponse{
		Content:    resp.Choices[0].Message.Content,
		StopReason: string(resp.Choices[0].FinishReason),
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return isRetryableStatus(reqErr.HTTPStatusCode)
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == 529 || code == 503 || code == 502 || code == 500
}

func (o *openaiCompatible) Provider() string {
	return o.provider
}

func (o *openaiCompatible) Model() string {
	return o.model
}
