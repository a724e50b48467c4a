// ABOUTME: Chat-completion decision oracle and embedder backed by go-openai
// ABOUTME: Works against OpenAI or any OpenAI-compatible endpoint such as a local Ollama server
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for continuation questions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for retrieval embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultTimeout bounds a single request
	DefaultTimeout = 30 * time.Second
)

// ClientConfig holds configuration for the OpenAI clients
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	Temperature    float32
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Timeout:        DefaultTimeout,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
	}
}

func (c *ClientConfig) validate() error {
	if c == nil {
		return fmt.Errorf("%w: client config is required", models.ErrValidation)
	}
	if c.APIKey == "" && c.BaseURL == "" {
		return fmt.Errorf("%w: OpenAI API key is required unless a base URL is set", models.ErrValidation)
	}
	if c.ChatModel == "" {
		return fmt.Errorf("%w: chat model is required", models.ErrValidation)
	}
	return nil
}

func (c *ClientConfig) backoff() util.Backoff {
	return util.Backoff{Retries: c.MaxRetries, Base: c.RetryDelay}
}

func (c *ClientConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// OpenAIClient asks continuation questions through chat completions
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	temperature    float32
	timeout        time.Duration
	backoff        util.Backoff
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      config.ChatModel,
		embeddingModel: embeddingModel,
		temperature:    config.Temperature,
		timeout:        config.timeout(),
		backoff:        config.backoff(),
	}, nil
}

// Model returns the chat model name
func (c *OpenAIClient) Model() string { return c.chatModel }

// Invoke sends prompt as a single user message and returns the reply text.
func (c *OpenAIClient) Invoke(ctx context.Context, prompt string) (string, error) {
	var answer string
	err := c.backoff.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: c.temperature,
		})
		if err != nil {
			return classifyAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", models.ErrOracle, err)
	}
	return answer, nil
}

// GenerateEmbedding returns the embedding vector for text
func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64
	err := c.backoff.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return classifyAPIError(err)
		}
		if len(resp.Data) == 0 {
			return errors.New("no embeddings returned")
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w", models.ErrOracle, err)
	}
	return embedding, nil
}

// classifyAPIError marks client errors other than rate limits as permanent
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if isPermanentStatus(apiErr.HTTPStatusCode) {
			return util.Permanent(err)
		}
		return err
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && isPermanentStatus(reqErr.HTTPStatusCode) {
		return util.Permanent(err)
	}
	return err
}

func isPermanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout
}
