// ABOUTME: Main entry point for the topicseg MCP server with stdio transport
// ABOUTME: Opens the dataset database, builds the oracle, and serves all tools
package main

import (
	"log"
	"os"

	"github.com/harper/topicseg/internal/config"
	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/llm"
	"github.com/harper/topicseg/internal/logging"
	"github.com/harper/topicseg/internal/mcp"
	"github.com/harper/topicseg/internal/storage/sqlite"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("Invalid logging configuration: %v", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = sqlite.DefaultDBPath()
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var oracle core.Oracle
	if cfg.HasOracleCredentials() {
		client, err := llm.NewOracle(cfg)
		if err != nil {
			log.Fatalf("Failed to create oracle: %v", err)
		}
		oracle = client
	} else {
		logger.Warn("OPENAI_API_KEY not set - segment_text will be unavailable")
	}

	prompt, err := core.PromptByName(cfg.Prompt)
	if err != nil {
		log.Fatalf("Invalid prompt: %v", err)
	}

	server := mcpserver.NewMCPServer("topicseg", "0.1.0")
	mcp.RegisterTools(server, db, oracle, logger,
		core.WithWindowSize(cfg.WindowSize),
		core.WithPrompt(prompt),
	)

	logger.Info("topicseg MCP server starting on stdio", "db", db.Path())
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
