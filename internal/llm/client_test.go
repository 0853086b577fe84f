package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatAPI struct {
	requests  []openai.ChatCompletionRequest
	responses map[string]string
	failModels map[string]error
}

func (f *fakeChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.failModels[req.Model]; ok {
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.responses[req.Model]}},
		},
	}, nil
}

func TestComplete_PrimaryModel(t *testing.T) {
	api := &fakeChatAPI{responses: map[string]string{"primary": "hello"}}
	client := NewClientWithAPI(api, "primary", "backup")

	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.3, 100)

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	require.Len(t, api.requests, 1)
	assert.Equal(t, "primary", api.requests[0].Model)
	assert.Equal(t, float32(0.3), api.requests[0].Temperature)
	assert.Equal(t, 100, api.requests[0].MaxTokens)
}

func TestComplete_FallsBackToBackupModel(t *testing.T) {
	api := &fakeChatAPI{
		responses:  map[string]string{"backup": "from backup"},
		failModels: map[string]error{"primary": errors.New("overloaded")},
	}
	client := NewClientWithAPI(api, "primary", "backup")

	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.5, 50)

	require.NoError(t, err)
	assert.Equal(t, "from backup", out)
	require.Len(t, api.requests, 2)
	assert.Equal(t, "backup", api.requests[1].Model)
}

func TestComplete_NoBackupPropagatesError(t *testing.T) {
	api := &fakeChatAPI{failModels: map[string]error{"primary": errors.New("overloaded")}}
	client := NewClientWithAPI(api, "primary", "")

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.5, 50)

	require.Error(t, err)
	assert.Len(t, api.requests, 1)
}

func TestComplete_BothModelsFail(t *testing.T) {
	api := &fakeChatAPI{failModels: map[string]error{
		"primary": errors.New("overloaded"),
		"backup":  errors.New("also down"),
	}}
	client := NewClientWithAPI(api, "primary", "backup")

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.5, 50)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup model failed")
}
