package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/citecheck/citecheck/internal/model"
)

// sleepFunc is the delay between retry attempts (injectable for tests).
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

const (
	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = 128 * time.Second
)

// OpenAIClient implements Client on the OpenAI chat-completions API. A custom
// base URL points it at any OpenAI-compatible endpoint.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	maxTokens  int
	maxRetries int
	timeout    time.Duration
}

// NewOpenAIClient builds the shared capability client from configuration.
func NewOpenAIClient(cfg model.LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		maxRetries: maxRetries,
		timeout:    timeout,
	}, nil
}

// Complete issues one chat completion with bounded exponential backoff.
// Rate-limit and quota errors are retried; any other provider error aborts
// immediately.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	chatReq := c.buildRequest(req)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << uint(attempt-1)
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
			if err := sleepFunc(ctx, delay); err != nil {
				return "", err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(callCtx, chatReq)
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("llm: empty response")
			}
			return resp.Choices[0].Message.Content, nil
		}

		if !IsRateLimitError(err) {
			return "", fmt.Errorf("llm: %w", err)
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
}

func (c *OpenAIClient) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	mdl := req.Model
	if mdl == "" {
		mdl = c.model
	}
	if mdl == "" {
		mdl = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:     mdl,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.HasTemp {
		chatReq.Temperature = req.Temperature
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return chatReq
}
