// Package embeddings wraps the remote embedding provider with batching,
// retry/backoff, and rate-limit-aware waiting.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reelworks/brain/internal/domain"
)

const (
	// DefaultModel is the OpenAI model used for generating embeddings
	DefaultModel = string(openai.SmallEmbedding3)
	// DefaultDimensions is the expected dimension of embeddings from the default model
	DefaultDimensions = 1536
	// DefaultTimeout bounds a single provider call; a timeout counts as an attempt
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrEmptyText is returned when a text to embed is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// API defines the raw provider call. Implementations must preserve input
// order in the returned vectors.
type API interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// RetryPolicy models the retry loop as an explicit value so it can be
// unit-tested with a fake clock.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy retries up to 3 attempts with exponential backoff
// (2^attempt seconds), matching the provider's rate-limit guidance.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		},
		Sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Client is the resilient embedding client used by all ingestion and
// query paths. It performs no caching: content changes fingerprint
// semantics downstream, so every call is fresh.
type Client struct {
	api        API
	model      string
	dimensions int
	timeout    time.Duration
	policy     RetryPolicy
}

type Config struct {
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	Policy     *RetryPolicy
}

// OpenAIAdapter implements API on top of the OpenAI embeddings endpoint.
type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey, model string) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}
}

// CreateEmbeddings sends the whole batch in a single request and returns
// the vectors in input order.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, item := range data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// NewClient creates a client with default model, dimensions, and retry policy.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	policy := DefaultRetryPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, model),
		model:      model,
		dimensions: dimensions,
		timeout:    timeout,
		policy:     policy,
	}
}

// NewClientWithAPI builds a client around a custom provider implementation.
func NewClientWithAPI(api API, model string, dimensions int, policy RetryPolicy) *Client {
	if model == "" {
		model = DefaultModel
	}
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Client{
		api:        api,
		model:      model,
		dimensions: dimensions,
		timeout:    DefaultTimeout,
		policy:     policy,
	}
}

// Model returns the configured embedding model name.
func (c *Client) Model() string { return c.model }

// Dimensions returns the provider's declared dimensionality.
func (c *Client) Dimensions() int { return c.dimensions }

// EmbedOne generates an embedding for a single text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany generates embeddings for all texts, preserving order. On
// failure it never returns partial vectors: either every input has a
// valid embedding or the call fails with a provider error carrying the
// last cause.
func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "no texts to embed")
	}
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		vectors, err := c.embedOnce(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, domain.NewProviderError("embedding provider rejected the request", err)
		}

		if attempt < c.policy.MaxAttempts-1 {
			if sleepErr := c.policy.Sleep(ctx, c.policy.Backoff(attempt)); sleepErr != nil {
				return nil, domain.NewProviderError("embedding call cancelled during backoff", sleepErr)
			}
		}
	}

	return nil, domain.NewProviderError(
		fmt.Sprintf("embedding provider failed after %d attempts", c.policy.MaxAttempts), lastErr)
}

func (c *Client) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vectors, err := c.api.CreateEmbeddings(callCtx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for _, v := range vectors {
		if len(v) != c.dimensions {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(v))
		}
	}
	return vectors, nil
}

// isRetryable distinguishes transient failures (rate limits, timeouts,
// 5xx) from permanent ones (bad key, malformed request).
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400, 401, 403, 404:
			return false
		}
		return true
	}
	// Timeouts and transport errors are transient.
	return true
}
