package sim

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ppiankov/cmddoctor/internal/diagnose"
	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

// Filter narrows the simulated grid. Empty fields match everything.
type Filter struct {
	Channel string
	Member  string
	Command string
}

// Simulate diagnoses every channel, member and command of the new snapshot
// against both snapshots and returns the combinations whose outcome changed.
// Subjects are matched across snapshots by ID; a subject missing from the
// old snapshot is compared against a refusal.
func Simulate(ctx context.Context, oldPath, newPath string, f Filter) (*SimResult, error) {
	oldHost, err := loadHost(oldPath)
	if err != nil {
		return nil, fmt.Errorf("load old snapshot: %w", err)
	}
	newHost, err := loadHost(newPath)
	if err != nil {
		return nil, fmt.Errorf("load new snapshot: %w", err)
	}

	result := &SimResult{OldPath: oldPath, NewPath: newPath}

	for _, ch := range newHost.Channels() {
		if f.Channel != "" && f.Channel != ch.Name && f.Channel != strconv.FormatInt(ch.ID, 10) {
			continue
		}
		for _, m := range newHost.Members(ch) {
			if m.Bot || (f.Member != "" && f.Member != m.Name && f.Member != strconv.FormatInt(m.ID, 10)) {
				continue
			}
			for _, cmd := range newHost.Commands() {
				if f.Command != "" && f.Command != cmd.QualifiedName() {
					continue
				}
				req := snapshot.Request{
					Channel: strconv.FormatInt(ch.ID, 10),
					Member:  strconv.FormatInt(m.ID, 10),
					Command: cmd.QualifiedName(),
				}

				before, err := evaluate(ctx, oldHost, req)
				if err != nil {
					return nil, err
				}
				after, err := evaluate(ctx, newHost, req)
				if err != nil {
					return nil, err
				}

				result.TotalCombinations++
				if before.Outcome == after.Outcome {
					continue
				}
				result.Changes = append(result.Changes, DiffEntry{
					Channel:    ch.Name,
					Member:     m.Name,
					Command:    cmd.QualifiedName(),
					OldOutcome: before.Outcome,
					NewOutcome: after.Outcome,
					OldStep:    before.Step,
					NewStep:    after.Step,
				})
				result.ChangedCombinations++
				if before.Outcome == OutcomePass {
					result.NewlyBlocked++
				}
				if after.Outcome == OutcomePass {
					result.NewlyAllowed++
				}
			}
		}
	}

	return result, nil
}

func loadHost(path string) (*snapshot.Host, error) {
	snap, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	return snapshot.New(snap)
}

type verdict struct {
	Outcome string
	Step    string
}

// evaluate diagnoses req silently. Subjects absent from h count as refusals
// so that added or removed subjects show up as changes. Any other error aborts.
func evaluate(ctx context.Context, h *snapshot.Host, req snapshot.Request) (verdict, error) {
	rep, err := h.Diagnose(ctx, req, diagnose.Options{Logger: discard})
	var refusal *snapshot.RefusalError
	switch {
	case errors.As(err, &refusal):
		return verdict{Outcome: OutcomeRefuse, Step: refusal.Message}, nil
	case ctx.Err() != nil:
		return verdict{}, ctx.Err()
	case errors.Is(err, snapshot.ErrNotFound):
		return verdict{Outcome: OutcomeRefuse, Step: err.Error()}, nil
	case err != nil:
		return verdict{}, fmt.Errorf("diagnose %s/%s/%s: %w", req.Channel, req.Member, req.Command, err)
	case rep.Result.Success:
		return verdict{Outcome: OutcomePass}, nil
	default:
		return verdict{Outcome: OutcomeFail, Step: rep.Result.FailingStep().Label}, nil
	}
}
