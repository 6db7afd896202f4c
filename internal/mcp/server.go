// Package mcp exposes diagnoses over the Model Context Protocol on stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

// Config holds MCP server configuration.
type Config struct {
	SnapshotPath string
	Version      string
	Logger       *slog.Logger
}

// Server wraps the MCP SDK server around a snapshot host.
type Server struct {
	mcpServer    *mcpsdk.Server
	snapshotPath string
	logger       *slog.Logger

	mu   sync.RWMutex
	host *snapshot.Host
}

// New loads the snapshot and registers the tools.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		snapshotPath: cfg.SnapshotPath,
		logger:       logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cmddoctor",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Reload re-reads the snapshot file. On failure the previous snapshot stays
// in service.
func (s *Server) Reload() error {
	snap, err := snapshot.Load(s.snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	h, err := snapshot.New(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.host = h
	s.mu.Unlock()
	s.logger.Debug("snapshot loaded", "path", s.snapshotPath)
	return nil
}

func (s *Server) current() *snapshot.Host {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host
}

// registerTools adds all cmddoctor tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name: "cmddoctor_diagnose",
		Description: "Explain why a member cannot run a bot command in a channel. " +
			"Returns the step-by-step check trace and a suggested fix.",
	}, s.handleDiagnose)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cmddoctor_validate",
		Description: "List consistency problems in the loaded bot snapshot.",
	}, s.handleValidate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cmddoctor_reload",
		Description: "Re-read the bot snapshot from disk.",
	}, s.handleReload)
}
