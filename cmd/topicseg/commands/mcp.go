// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Exposes segmentation, splitting, sampling, and stats tools via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs topicseg as an MCP (Model Context Protocol) server so agents can
segment text, regenerate splits, sample segments, and inspect datasets
over stdio. Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  topicseg mcp

  # Configure in the client's config file:
  # {
  #   "mcpServers": {
  #     "topicseg": {
  #       "command": "topicseg",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Segmentation is optional; the storage tools work without credentials.
	var oracle core.Oracle
	if cfg.HasOracleCredentials() {
		oracle, err = newOracle(cfg, nil, false)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set - segment_text will be unavailable")
	}

	opts, err := segmenterOptions(cfg, logger)
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer("topicseg", versionInfo.Version)
	mcp.RegisterTools(server, db, oracle, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio", "db", db.Path())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
