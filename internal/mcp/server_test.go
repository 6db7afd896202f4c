package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

const testSnapshot = `
prefix: "!"
bot: {id: 1, name: cmdbot}
owners: [2]
commands:
  - name: ping
  - name: shutdown
    requires: {privilege: bot_owner}
guilds:
  - id: 10
    name: Test Server
    roles:
      - {id: 10, name: "@everyone", permissions: [view_channel, send_messages]}
    channels:
      - {id: 20, name: general}
    members:
      - {id: 1, name: cmdbot, bot: true}
      - {id: 2, name: owner}
      - {id: 300, name: alice}
`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := os.WriteFile(path, []byte(testSnapshot), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := New(Config{SnapshotPath: path})
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	return s, path
}

func TestDiagnosePasses(t *testing.T) {
	s, _ := newTestServer(t)

	result, out, err := s.handleDiagnose(context.Background(), &mcpsdk.CallToolRequest{}, DiagnoseInput{
		Channel: "general", Member: "alice", Command: "ping",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	if !out.Success || out.FailedStep != "" {
		t.Fatalf("expected success, got %+v", out)
	}
	if !strings.Contains(out.Report, "All checks passed") {
		t.Errorf("report missing success line:\n%s", out.Report)
	}
}

func TestDiagnoseFails(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleDiagnose(context.Background(), &mcpsdk.CallToolRequest{}, DiagnoseInput{
		Channel: "general", Member: "alice", Command: "shutdown",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Success {
		t.Fatal("expected failure")
	}
	if out.FailedStep != "Ensure that the command is not bot owner only" {
		t.Errorf("failed step: got %q", out.FailedStep)
	}
	if !strings.Contains(out.Resolution, "This cannot be fixed") {
		t.Errorf("resolution: got %q", out.Resolution)
	}
	if len(out.Lines) == 0 {
		t.Error("expected outline lines")
	}
}

func TestDiagnoseRefused(t *testing.T) {
	s, _ := newTestServer(t)

	result, out, err := s.handleDiagnose(context.Background(), &mcpsdk.CallToolRequest{}, DiagnoseInput{
		Channel: "general", Member: "alice", Command: "dance",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result for refusal")
	}
	if !out.Refused || out.Report != "Command not found!" {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestDiagnoseUnknownMember(t *testing.T) {
	s, _ := newTestServer(t)

	_, _, err := s.handleDiagnose(context.Background(), &mcpsdk.CallToolRequest{}, DiagnoseInput{
		Channel: "general", Member: "bob", Command: "ping",
	})
	if !errors.Is(err, snapshot.ErrNotFound) || !strings.Contains(err.Error(), `member "bob"`) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	s, path := newTestServer(t)
	ctx := context.Background()

	if err := os.WriteFile(path, []byte("bot: {id: 0}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	result, out, err := s.handleReload(ctx, &mcpsdk.CallToolRequest{}, ReloadInput{})
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || !result.IsError || out.Status != "failed" {
		t.Fatalf("expected failed reload, got %+v", out)
	}

	_, diag, err := s.handleDiagnose(ctx, &mcpsdk.CallToolRequest{}, DiagnoseInput{
		Channel: "general", Member: "alice", Command: "ping",
	})
	if err != nil || !diag.Success {
		t.Fatalf("previous snapshot should stay in service: %+v, %v", diag, err)
	}

	_, vout, err := s.handleValidate(ctx, &mcpsdk.CallToolRequest{}, ValidateInput{})
	if err != nil {
		t.Fatal(err)
	}
	if vout.Errors == 0 {
		t.Errorf("expected validation errors for the broken file, got %+v", vout)
	}
}

func TestNewMissingSnapshot(t *testing.T) {
	_, err := New(Config{SnapshotPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}
