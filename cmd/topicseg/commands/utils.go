// ABOUTME: Shared setup and output helpers for CLI commands
// ABOUTME: Config loading, logger and storage construction, oracle wiring, formatting
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/harper/topicseg/internal/config"
	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/llm"
	"github.com/harper/topicseg/internal/logging"
	"github.com/harper/topicseg/internal/storage/sqlite"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// loadConfig loads .env (if present) and the environment configuration
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

// newLogger builds the command logger; --verbose and --quiet override LOG_LEVEL
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(level, cfg.LogFormat, w)
}

// openDB opens the configured database
func openDB(cfg *config.Config) (*sqlite.DB, error) {
	path := cfg.DBPath
	if path == "" {
		path = sqlite.DefaultDBPath()
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// openStorage opens the configured database and binds it to dataset
func openStorage(ctx context.Context, cfg *config.Config, dataset string, v sqlite.Variant) (*sqlite.DB, *sqlite.Storage, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.NewStorage(ctx, db, dataset, v)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("opening dataset %s: %w", dataset, err)
	}
	return db, store, nil
}

// newOracle builds the configured oracle. With rag set, every prompt is
// augmented with passages retrieved from embeddings.
func newOracle(cfg *config.Config, embeddings *sqlite.EmbeddingStore, rag bool) (core.Oracle, error) {
	if !cfg.HasOracleCredentials() {
		return nil, fmt.Errorf("OPENAI_API_KEY or OPENAI_BASE_URL is required for segmentation")
	}
	oracle, err := llm.NewOracle(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating oracle: %w", err)
	}
	if !rag {
		return oracle, nil
	}

	embedder, err := llm.NewOpenAIClientWithConfig(llm.ClientConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	retriever := core.NewRetriever(embedder, embeddings)
	return core.NewRetrievalOracle(oracle, retriever, cfg.RetrievalK), nil
}

// segmenterOptions maps config plus flag overrides onto engine options
func segmenterOptions(cfg *config.Config, logger *slog.Logger) ([]core.Option, error) {
	prompt, err := core.PromptByName(cfg.Prompt)
	if err != nil {
		return nil, err
	}
	return []core.Option{
		core.WithWindowSize(cfg.WindowSize),
		core.WithPrompt(prompt),
		core.WithLogger(logger),
	}, nil
}

// structuredFormat reports whether output should be machine-readable
func structuredFormat() bool {
	return outputFormat == "json" || outputFormat == "yaml"
}

// writeStructured encodes v as JSON or YAML according to --format
func writeStructured(w io.Writer, v any) error {
	if outputFormat == "yaml" {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return encoder.Close()
	}
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", jsonData)
	return err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
