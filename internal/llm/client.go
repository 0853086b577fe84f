// Package llm provides the chat-completion collaborator used for theme
// extraction, summaries, and coverage analysis.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the primary completion model
	DefaultModel = openai.GPT4oMini

	RoleSystem = openai.ChatMessageRoleSystem
	RoleUser   = openai.ChatMessageRoleUser
)

// Message is one chat message sent to the completion endpoint.
type Message struct {
	Role    string
	Content string
}

// ChatAPI is the raw completion call.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client issues free-text prompts. Callers parse the output defensively;
// this client only guarantees transport and model fallback.
type Client struct {
	api         ChatAPI
	model       string
	backupModel string
}

type Config struct {
	APIKey      string
	Model       string
	BackupModel string
}

func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:         openai.NewClient(cfg.APIKey),
		model:       model,
		backupModel: cfg.BackupModel,
	}
}

// NewClientWithAPI builds a client around a custom completion backend.
func NewClientWithAPI(api ChatAPI, model, backupModel string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: api, model: model, backupModel: backupModel}
}

// Complete sends a chat completion request. If the primary model fails
// and a backup model is configured, one fallback attempt is made.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float32, maxTokens int) (string, error) {
	content, err := c.completeWith(ctx, c.model, messages, temperature, maxTokens)
	if err == nil {
		return content, nil
	}
	if c.backupModel == "" {
		return "", err
	}
	content, backupErr := c.completeWith(ctx, c.backupModel, messages, temperature, maxTokens)
	if backupErr != nil {
		return "", fmt.Errorf("primary model failed (%v); backup model failed: %w", err, backupErr)
	}
	return content, nil
}

func (c *Client) completeWith(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) (string, error) {
	reqMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		reqMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    reqMessages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
