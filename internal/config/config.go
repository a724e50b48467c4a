// ABOUTME: Centralized configuration for the topicseg CLI, server and benchmark
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harper/topicseg/internal/models"
)

// Oracle backends
const (
	OracleChat       = "chat"
	OracleStructured = "structured"
)

// Config holds all configuration for segmentation runs
type Config struct {
	// Storage settings
	DBPath string

	// Segmentation settings
	WindowSize int
	SplitRatio float64
	Prompt     string
	Oracle     string

	// OpenAI settings
	OpenAIKey      string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Retrieval settings
	RetrievalK int

	// Logging settings
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables.
// An empty DBPath means the caller should use the default data directory.
// A numeric or duration variable that does not parse is a validation error.
func Load() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		DBPath:         os.Getenv("TOPICSEG_DB_PATH"),
		WindowSize:     env.int("TOPICSEG_WINDOW", 5),
		SplitRatio:     env.float("TOPICSEG_SPLIT_RATIO", 0.75),
		Prompt:         getEnv("TOPICSEG_PROMPT", "paragraph"),
		Oracle:         strings.ToLower(getEnv("TOPICSEG_ORACLE", OracleChat)),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		BaseURL:        os.Getenv("OPENAI_BASE_URL"),
		ChatModel:      getEnv("TOPICSEG_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("TOPICSEG_EMBEDDING_MODEL", "text-embedding-3-small"),
		Temperature:    env.float("TOPICSEG_TEMPERATURE", 0),
		Timeout:        env.duration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:     env.int("OPENAI_MAX_RETRIES", 3),
		RetryDelay:     env.duration("OPENAI_RETRY_DELAY", 2*time.Second),
		RetrievalK:     env.int("TOPICSEG_RETRIEVAL_K", 5),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// Validate checks every setting is within range
func (c *Config) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: TOPICSEG_WINDOW must be at least 1, got %d", models.ErrValidation, c.WindowSize)
	}
	if c.SplitRatio < 0 || c.SplitRatio > 1 {
		return fmt.Errorf("%w: TOPICSEG_SPLIT_RATIO must be 0-1, got %f", models.ErrValidation, c.SplitRatio)
	}
	if c.Oracle != OracleChat && c.Oracle != OracleStructured {
		return fmt.Errorf("%w: TOPICSEG_ORACLE must be %q or %q, got %q", models.ErrValidation, OracleChat, OracleStructured, c.Oracle)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: TOPICSEG_TEMPERATURE must be 0-2, got %f", models.ErrValidation, c.Temperature)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("%w: OPENAI_MAX_RETRIES must be 0-10, got %d", models.ErrValidation, c.MaxRetries)
	}
	if c.RetrievalK < 1 {
		return fmt.Errorf("%w: TOPICSEG_RETRIEVAL_K must be at least 1, got %d", models.ErrValidation, c.RetrievalK)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be text or json, got %q", models.ErrValidation, c.LogFormat)
	}
	return nil
}

// HasOracleCredentials reports whether an oracle client can be built
func (c *Config) HasOracleCredentials() bool {
	return c.OpenAIKey != "" || c.BaseURL != ""
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envReader parses typed variables and collects every malformed one.
type envReader struct {
	errs []error
}

func (r *envReader) malformed(key, kind, v string) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s must be %s, got %q", models.ErrValidation, key, kind, v))
}

func (r *envReader) int(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.malformed(key, "an integer", v)
		return defaultVal
	}
	return i
}

func (r *envReader) float(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.malformed(key, "a number", v)
		return defaultVal
	}
	return f
}

func (r *envReader) duration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.malformed(key, "a duration such as 30s", v)
		return defaultVal
	}
	return d
}
