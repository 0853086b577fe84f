package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelworks/brain/internal/domain"
)

// scriptedAPI returns one canned response per call, in order.
type scriptedAPI struct {
	calls     int
	responses []scriptedResponse
}

type scriptedResponse struct {
	vectors [][]float32
	err     error
}

func (s *scriptedAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("unexpected call")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp.vectors, resp.err
}

func testPolicy(slept *[]time.Duration) RetryPolicy {
	policy := DefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return policy
}

func vectorsOfDim(count, dim int) [][]float32 {
	out := make([][]float32, count)
	for i := range out {
		out[i] = make([]float32, dim)
		out[i][0] = float32(i + 1)
	}
	return out
}

func TestEmbedMany_Success(t *testing.T) {
	var slept []time.Duration
	api := &scriptedAPI{responses: []scriptedResponse{
		{vectors: vectorsOfDim(2, 4)},
	}}
	client := NewClientWithAPI(api, "test-model", 4, testPolicy(&slept))

	vectors, err := client.EmbedMany(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Empty(t, slept)
	assert.Equal(t, 1, api.calls)
}

func TestEmbedMany_RateLimitedTwiceThenSucceeds(t *testing.T) {
	rateLimit := &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}
	var slept []time.Duration
	api := &scriptedAPI{responses: []scriptedResponse{
		{err: rateLimit},
		{err: rateLimit},
		{vectors: vectorsOfDim(1, 4)},
	}}
	client := NewClientWithAPI(api, "test-model", 4, testPolicy(&slept))

	vector, err := client.EmbedOne(context.Background(), "hello")

	require.NoError(t, err)
	assert.Len(t, vector, 4)
	assert.Equal(t, 3, api.calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, slept)
}

func TestEmbedMany_ExhaustsAttempts(t *testing.T) {
	transient := errors.New("connection reset")
	var slept []time.Duration
	api := &scriptedAPI{responses: []scriptedResponse{
		{err: transient},
		{err: transient},
		{err: transient},
	}}
	client := NewClientWithAPI(api, "test-model", 4, testPolicy(&slept))

	vectors, err := client.EmbedMany(context.Background(), []string{"a"})

	assert.Nil(t, vectors)
	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeProvider, domainErr.Code)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, api.calls)
	assert.Len(t, slept, 2)
}

func TestEmbedMany_PermanentFailureNotRetried(t *testing.T) {
	authErr := &openai.APIError{HTTPStatusCode: 401, Message: "invalid key"}
	var slept []time.Duration
	api := &scriptedAPI{responses: []scriptedResponse{
		{err: authErr},
	}}
	client := NewClientWithAPI(api, "test-model", 4, testPolicy(&slept))

	_, err := client.EmbedMany(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.Equal(t, 1, api.calls)
	assert.Empty(t, slept)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeProvider, domainErr.Code)
}

func TestEmbedMany_WrongDimensionsIsRetriedThenFails(t *testing.T) {
	var slept []time.Duration
	api := &scriptedAPI{responses: []scriptedResponse{
		{vectors: vectorsOfDim(1, 2)},
		{vectors: vectorsOfDim(1, 2)},
		{vectors: vectorsOfDim(1, 2)},
	}}
	client := NewClientWithAPI(api, "test-model", 4, testPolicy(&slept))

	_, err := client.EmbedMany(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestEmbedMany_EmptyText(t *testing.T) {
	api := &scriptedAPI{}
	var slept []time.Duration
	client := NewClientWithAPI(api, "test-model", 4, testPolicy(&slept))

	_, err := client.EmbedMany(context.Background(), []string{"ok", ""})

	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Zero(t, api.calls)
}

func TestEmbedMany_NoTexts(t *testing.T) {
	api := &scriptedAPI{}
	var slept []time.Duration
	client := NewClientWithAPI(api, "test-model", 4, testPolicy(&slept))

	_, err := client.EmbedMany(context.Background(), nil)

	require.Error(t, err)
	assert.Zero(t, api.calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&openai.APIError{HTTPStatusCode: 429}))
	assert.True(t, isRetryable(&openai.APIError{HTTPStatusCode: 500}))
	assert.False(t, isRetryable(&openai.APIError{HTTPStatusCode: 401}))
	assert.False(t, isRetryable(&openai.APIError{HTTPStatusCode: 400}))
	assert.True(t, isRetryable(errors.New("connection reset")))
}
