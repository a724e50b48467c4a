// ABOUTME: Builds the configured decision oracle client from application config
// ABOUTME: Chat completions by default, Responses API with a strict schema on request
package llm

import (
	"context"
	"fmt"

	"github.com/harper/topicseg/internal/config"
	"github.com/harper/topicseg/internal/models"
	"github.com/sashabaranov/go-openai"
)

// Invoker is satisfied by every oracle client in this package.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ClientConfigFrom maps application settings onto a client configuration.
func ClientConfigFrom(cfg *config.Config) *ClientConfig {
	cc := DefaultConfig(cfg.OpenAIKey)
	cc.BaseURL = cfg.BaseURL
	cc.ChatModel = cfg.ChatModel
	cc.EmbeddingModel = openai.EmbeddingModel(cfg.EmbeddingModel)
	cc.Temperature = float32(cfg.Temperature)
	cc.Timeout = cfg.Timeout
	cc.MaxRetries = cfg.MaxRetries
	cc.RetryDelay = cfg.RetryDelay
	return cc
}

// NewOracle returns the oracle client selected by cfg.Oracle.
func NewOracle(cfg *config.Config) (Invoker, error) {
	cc := ClientConfigFrom(cfg)
	switch cfg.Oracle {
	case config.OracleChat, "":
		return NewOpenAIClientWithConfig(cc)
	case config.OracleStructured:
		return NewStructuredClient(cc)
	}
	return nil, fmt.Errorf("%w: unknown oracle %q", models.ErrValidation, cfg.Oracle)
}
