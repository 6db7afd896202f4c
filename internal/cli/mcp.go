package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	docmcp "github.com/ppiankov/cmddoctor/internal/mcp"
	"github.com/ppiankov/cmddoctor/internal/snapshot"
	"github.com/ppiankov/cmddoctor/internal/watch"
)

var (
	mcpSnapshot string
	mcpWatch    bool
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVarP(&mcpSnapshot, "snapshot", "s", "", "Path to bot snapshot (default ~/.cmddoctor/snapshot.yaml)")
	mcpCmd.Flags().BoolVarP(&mcpWatch, "watch", "w", false, "Reload the snapshot whenever the file changes")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs cmddoctor as an MCP (Model Context Protocol) server over stdio.\nExposes tools: diagnose, validate, reload.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	path := mcpSnapshot
	if path == "" {
		path = snapshot.DefaultPath()
	}

	srv, err := docmcp.New(docmcp.Config{
		SnapshotPath: path,
		Version:      version,
		Logger:       slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	if mcpWatch {
		go func() {
			// The initial call re-reads the file New has just loaded.
			_ = watch.Run(ctx, path, func(context.Context) error {
				if err := srv.Reload(); err != nil {
					fmt.Fprintf(os.Stderr, "hot-reload failed: %v\n", err)
					return nil
				}
				fmt.Fprintf(os.Stderr, "hot-reload: snapshot reloaded\n")
				return nil
			})
		}()
	}

	fmt.Fprintln(os.Stderr, "cmddoctor MCP server running on stdio")
	fmt.Fprintf(os.Stderr, "Snapshot: %s\n", path)
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
