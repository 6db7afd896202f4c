package diagnose

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/cmddoctor/internal/host"
)

var otherCommandChecks = Fail(
	"Other command checks",
	"The given command is failing one of the required checks.",
	"To fix this issue, a manual review of the command's checks is required.",
)

// checkCanRunIssues replays the per-command pipeline for every node from the
// root ancestor down to the target command.
//
// The cog-level requirement check runs before the root's checks, while the
// host verifies it in between. The outcome is the same for a diagnosis.
func (d *Diagnoser) checkCanRunIssues(ctx context.Context) (Result, error) {
	const label = "Command checks"
	v, err := d.host.CommandCanRun(ctx, d.invocation(), d.command, host.CanRunOptions{CheckAllParents: true})
	if err != nil && !host.IsCommandError(err) {
		return Result{}, err
	}
	if err == nil && v.Allowed {
		return Pass(label), nil
	}

	d.state = host.PermNormal
	d.current = d.command.Root()

	checks := []Check{d.checkRequiresCog}
	for _, cmd := range d.command.Chain() {
		checks = append(checks, func(ctx context.Context) (Result, error) {
			return d.checkChecks(ctx, cmd)
		})
	}
	res, err := d.run(ctx, label, checks, &otherCommandChecks)
	return d.settle(res, err, otherCommandChecks)
}

// checkChecks re-derives the full decision for one command node and, when it
// fails, splits it into the base checks and requirement verification.
func (d *Diagnoser) checkChecks(ctx context.Context, cmd *host.Command) (Result, error) {
	label := fmt.Sprintf("Run checks for the command %s", d.formatCommandName(cmd.QualifiedName()))
	d.current = cmd

	saved := d.state
	v, err := d.host.CommandCanRun(ctx, d.invocation(), cmd, host.CanRunOptions{ChangePermissionState: true})
	if err != nil && !host.IsCommandError(err) {
		return Result{}, err
	}
	if err == nil && v.Allowed {
		d.state = v.State
		return Pass(label), nil
	}

	d.state = saved
	res, err := d.run(ctx, label, []Check{
		d.checkBaseCanRun,
		d.checkRequires,
	}, &otherCommandChecks)
	return d.settle(res, err, otherCommandChecks)
}

// checkBaseCanRun covers everything but requirement verification: enabled
// state in the guild, bot checks, the cog check and the command's predicates.
func (d *Diagnoser) checkBaseCanRun(ctx context.Context) (Result, error) {
	const label = "Run all of the checks"
	cmd := d.current

	ok, err := d.host.BaseCanRun(ctx, d.invocation(), cmd)
	var disabled *host.DisabledCommandError
	switch {
	case errors.As(err, &disabled):
		detail := "One of the parents of the given command is disabled in this guild."
		if cmd == d.command {
			detail = "The given command is disabled in this guild."
		}
		return Fail(label, detail, fmt.Sprintf(
			"To fix this issue, you can run %s which will enable the %s command in this guild.",
			d.formatCommandName("command enable guild "+cmd.QualifiedName()),
			d.formatCommandName(cmd.QualifiedName()),
		)), nil
	case err != nil && !host.IsCommandError(err):
		return Result{}, err
	case err == nil && ok:
		return Pass(label), nil
	}

	final := Fail(
		"Other issues related to the checks",
		fmt.Sprintf("There's an issue related to the checks for %s"+
			" but we're not able to determine the exact cause.", d.formatCommandName(cmd.QualifiedName())),
		"To fix this issue, a manual review of the global, cog and command checks is required.",
	)
	res, err := d.run(ctx, label, []Check{
		d.checkBaseCanRunBot,
		d.checkBaseCanRunCog,
		d.checkBaseCanRunCommand,
	}, &final)
	return d.settle(res, err, final)
}

func (d *Diagnoser) checkBaseCanRunBot(ctx context.Context) (Result, error) {
	const label = "Run the global checks"
	ok, err := d.host.CanRun(ctx, d.invocation(), false)
	if err != nil && !host.IsCommandError(err) {
		return Result{}, err
	}
	if err == nil && ok {
		return Pass(label), nil
	}
	return d.commandErrorResult(host.ErrorMessage(err), label,
		"One of the global checks for the command %s failed with a message:\n%s",
		"One of the global checks for the command %s failed without a message.",
	), nil
}

func (d *Diagnoser) checkBaseCanRunCog(ctx context.Context) (Result, error) {
	const label = "Run the cog check"
	cog := d.current.Cog
	if cog == nil || !cog.HasCheck {
		return Pass(label), nil
	}
	ok, err := d.host.CogCheck(ctx, d.invocation(), cog)
	if err != nil && !host.IsCommandError(err) {
		return Result{}, err
	}
	if err == nil && ok {
		return Pass(label), nil
	}
	return d.commandErrorResult(host.ErrorMessage(err), label,
		"The cog check for the command %s failed with a message:\n%s",
		"The cog check for the command %s failed without a message.",
	), nil
}

func (d *Diagnoser) checkBaseCanRunCommand(ctx context.Context) (Result, error) {
	const label = "Run the command checks"
	if len(d.current.Checks) == 0 {
		return Pass(label), nil
	}
	ok, err := d.host.CommandChecks(ctx, d.invocation(), d.current)
	if err != nil && !host.IsCommandError(err) {
		return Result{}, err
	}
	if err == nil && ok {
		return Pass(label), nil
	}
	return d.commandErrorResult(host.ErrorMessage(err), label,
		"One of the command checks for the command %s failed with a message:\n%s",
		"One of the command checks for the command %s failed without a message.",
	), nil
}
