// skillpath-mcp serves the assessment as MCP tools over stdio.
//
// Usage:
//
//	skillpath-mcp serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/skillpath/internal/app"
	"github.com/ashureev/skillpath/internal/config"
	"github.com/ashureev/skillpath/internal/mcptools"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
	case "--version", "-v", "version":
		fmt.Printf("skillpath-mcp %s\n", mcptools.Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	// stdout carries the MCP protocol; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if os.Getenv("STORE_BACKEND") == "" {
		// One stdio client per process, so sessions need not outlive it.
		if err := os.Setenv("STORE_BACKEND", config.StoreMemory); err != nil {
			return fmt.Errorf("set default store: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	deps, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.Error("Failed to close application", "error", closeErr)
		}
	}()

	return server.ServeStdio(mcptools.NewServer(deps.Engine))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `skillpath-mcp %s - skills assessment MCP server

Usage:
  skillpath-mcp serve    Start the MCP server (stdio transport)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "skillpath": {
        "command": "skillpath-mcp",
        "args": ["serve"]
      }
    }
  }

Environment variables are the same as the HTTP server; STORE_BACKEND
defaults to memory.
`, mcptools.Version)
}
