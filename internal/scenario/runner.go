package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/cmddoctor/internal/diagnose"
	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

// Outcomes a case can expect.
const (
	ExpectPass   = "pass"
	ExpectFail   = "fail"
	ExpectRefuse = "refuse"
)

// Run diagnoses every case against h. Cases are independent and evaluated
// concurrently; results keep the scenario's order. Only context cancellation
// aborts the run, any other problem fails the case it belongs to.
func Run(ctx context.Context, s *Scenario, h *snapshot.Host) (*RunResult, error) {
	cases := make([]CaseResult, len(s.Cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range s.Cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cr, err := runCase(gctx, h, c)
			if err != nil {
				return err
			}
			cr.Index = i + 1
			cases[i] = cr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
		Cases: cases,
	}
	for _, cr := range cases {
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

func runCase(ctx context.Context, h *snapshot.Host, c Case) (CaseResult, error) {
	cr := CaseResult{
		Channel:  c.Channel,
		Member:   c.Member,
		Command:  c.Command,
		Expected: strings.ToLower(c.Expect),
	}

	rep, err := h.Diagnose(ctx, c.Request, diagnose.Options{})
	var refusal *snapshot.RefusalError
	switch {
	case errors.As(err, &refusal):
		cr.Actual = ExpectRefuse
		cr.Reason = refusal.Message
	case ctx.Err() != nil:
		return cr, ctx.Err()
	case err != nil:
		cr.Actual = "error"
		cr.Reason = err.Error()
		return cr, nil
	case rep.Result.Success:
		cr.Actual = ExpectPass
	default:
		cr.Actual = ExpectFail
		cr.Step = rep.Result.FailingStep().Label
		cr.Reason = rep.Result.Resolution
	}

	if cr.Actual != cr.Expected {
		return cr, nil
	}
	if c.Label != "" && !strings.Contains(cr.Step, c.Label) {
		cr.Reason = fmt.Sprintf("failing step %q does not mention %q", cr.Step, c.Label)
		return cr, nil
	}
	if c.Resolution != "" && !strings.Contains(cr.Reason, c.Resolution) {
		cr.Reason = fmt.Sprintf("resolution does not mention %q", c.Resolution)
		return cr, nil
	}
	cr.Passed = true
	return cr, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i, c := range s.Cases {
		switch strings.ToLower(c.Expect) {
		case ExpectPass, ExpectFail, ExpectRefuse:
		default:
			return nil, fmt.Errorf("%s: case %d: expect must be pass, fail or refuse, got %q", path, i+1, c.Expect)
		}
	}
	return &s, nil
}

// LoadAndRun loads a scenario file and its snapshot, and runs it.
// snapshotPath overrides the snapshot named in the scenario.
func LoadAndRun(ctx context.Context, path, snapshotPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	if snapshotPath == "" && s.Snapshot != "" {
		snapshotPath = s.Snapshot
		if !filepath.IsAbs(snapshotPath) {
			snapshotPath = filepath.Join(filepath.Dir(path), snapshotPath)
		}
	}
	snap, err := snapshot.Load(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	h, err := snapshot.New(snap)
	if err != nil {
		return nil, err
	}

	result, err := Run(ctx, s, h)
	if err != nil {
		return nil, err
	}
	result.File = path
	return result, nil
}
