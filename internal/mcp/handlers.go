package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cmddoctor/internal/diagnose"
	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

// --- Input/Output types ---

// DiagnoseInput defines parameters for the cmddoctor_diagnose tool.
type DiagnoseInput struct {
	Channel string `json:"channel" jsonschema:"channel name or ID"`
	Member  string `json:"member" jsonschema:"member name or ID"`
	Command string `json:"command" jsonschema:"qualified command name without prefix, e.g. 'playlist start'"`
}

// DiagnoseOutput carries the rendered report and its outcome.
type DiagnoseOutput struct {
	Success    bool     `json:"success"`
	Refused    bool     `json:"refused,omitempty"`
	FailedStep string   `json:"failed_step,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
	Lines      []string `json:"lines,omitempty"`
	Report     string   `json:"report"`
}

// ValidateInput is empty. The snapshot file is re-read on every call.
type ValidateInput struct{}

// ValidateOutput lists snapshot problems.
type ValidateOutput struct {
	Problems []snapshot.Problem `json:"problems"`
	Errors   int                `json:"errors"`
}

// ReloadInput is empty.
type ReloadInput struct{}

// ReloadOutput reports the reload outcome.
type ReloadOutput struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// --- Handlers ---

func (s *Server) handleDiagnose(ctx context.Context, req *mcpsdk.CallToolRequest, input DiagnoseInput) (*mcpsdk.CallToolResult, DiagnoseOutput, error) {
	rep, err := s.current().Diagnose(ctx, snapshot.Request{
		Channel: input.Channel,
		Member:  input.Member,
		Command: input.Command,
	}, diagnose.Options{Logger: s.logger})

	var refusal *snapshot.RefusalError
	if errors.As(err, &refusal) {
		out := DiagnoseOutput{Refused: true, Report: refusal.Message}
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	if err != nil {
		return nil, DiagnoseOutput{}, fmt.Errorf("diagnose: %w", err)
	}

	out := DiagnoseOutput{
		Success:    rep.Result.Success,
		Resolution: rep.Result.Resolution,
		Lines:      rep.Lines,
		Report:     rep.String(),
	}
	if !rep.Result.Success {
		out.FailedStep = rep.Result.FailingStep().Label
	}
	return nil, out, nil
}

func (s *Server) handleValidate(ctx context.Context, req *mcpsdk.CallToolRequest, input ValidateInput) (*mcpsdk.CallToolResult, ValidateOutput, error) {
	snap, err := snapshot.Load(s.snapshotPath)
	if err != nil {
		return nil, ValidateOutput{}, err
	}
	out := ValidateOutput{Problems: snap.Validate()}
	for _, p := range out.Problems {
		if p.Severity == snapshot.SevError {
			out.Errors++
		}
	}
	if out.Errors > 0 {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleReload(ctx context.Context, req *mcpsdk.CallToolRequest, input ReloadInput) (*mcpsdk.CallToolResult, ReloadOutput, error) {
	if err := s.Reload(); err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, ReloadOutput{Status: "failed", Error: err.Error()}, nil
	}
	return nil, ReloadOutput{Status: "reloaded"}, nil
}
