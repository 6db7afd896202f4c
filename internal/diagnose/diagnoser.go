// Package diagnose explains why a member cannot run a command in a channel.
//
// It replays the host's authorization pipeline step by step against a
// synthetic invocation context, stops at the first failing step, and renders
// the trace with a suggested fix. Nothing is dispatched: every host call is a
// read-only query.
package diagnose

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ppiankov/cmddoctor/internal/chatfmt"
	"github.com/ppiankov/cmddoctor/internal/host"
)

// Options tunes a Diagnoser.
type Options struct {
	// Logger receives one debug record per executed check. Nil uses slog.Default().
	Logger *slog.Logger
}

// Diagnoser holds the state of a single diagnosis. It is not safe for
// concurrent use and must not be reused across diagnoses.
type Diagnoser struct {
	host     host.Host
	original host.Invocation
	guild    *host.Guild
	channel  *host.Channel
	author   *host.Member
	command  *host.Command
	logger   *slog.Logger

	prepared bool
	message  host.Message
	inv      host.Invocation

	// current is the command node whose checks are being replayed.
	current *host.Command
	// state is the permission state threaded through requirement checks.
	state host.PermState
}

// New creates a Diagnoser for author running command in channel. original is
// the context the diagnosis was requested from; it supplies the prefix used
// when formatting command names.
func New(h host.Host, original host.Invocation, channel *host.Channel, author *host.Member, command *host.Command, opts Options) *Diagnoser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Diagnoser{
		host:     h,
		original: original,
		guild:    channel.Guild,
		channel:  channel,
		author:   author,
		command:  command,
		logger:   logger,
	}
}

// Diagnose runs a complete diagnosis and returns the rendered report.
func Diagnose(ctx context.Context, h host.Host, original host.Invocation, channel *host.Channel, author *host.Member, command *host.Command) (string, error) {
	rep, err := New(h, original, channel, author, command, Options{}).Report(ctx)
	if err != nil {
		return "", err
	}
	return rep.String(), nil
}

// prepare synthesizes the invocation context: the original message re-authored
// by the target member, moved to the target channel and carrying the target
// command. Only the first call does any work.
func (d *Diagnoser) prepare(ctx context.Context) error {
	if d.prepared {
		return nil
	}
	msg := d.original.Message
	msg.Author = d.author
	msg.Channel = d.channel
	msg.Content = d.original.Prefix + d.command.QualifiedName()

	inv, err := d.host.GetContext(ctx, msg)
	if err != nil {
		return err
	}
	d.message = msg
	d.inv = inv
	d.current = inv.Command
	if d.current == nil {
		d.current = d.command
	}
	d.state = inv.PermState
	d.prepared = true
	return nil
}

// Run prepares the context and walks the whole check catalog.
// Authorization failures never surface as errors; only context synthesis and
// host infrastructure failures do.
func (d *Diagnoser) Run(ctx context.Context) (Result, error) {
	if err := d.prepare(ctx); err != nil {
		return Result{}, fmt.Errorf("synthesize context: %w", err)
	}
	res, err := d.run(ctx, "", []Check{
		d.checkGlobalChecks,
		d.checkDisabledCommand,
		d.checkCanRunIssues,
	}, nil)
	return d.settle(res, err, unidentifiedIssue)
}

// invocation is the synthesized context pointed at the current command and
// carrying the threaded permission state.
func (d *Diagnoser) invocation() host.Invocation {
	return d.inv.WithCommand(d.current).WithPermState(d.state)
}

// run is RunUntilFail with per-check debug logging.
func (d *Diagnoser) run(ctx context.Context, label string, checks []Check, final *Result) (Result, error) {
	traced := make([]Check, len(checks))
	for i, check := range checks {
		traced[i] = func(ctx context.Context) (Result, error) {
			res, err := check(ctx)
			if err != nil {
				d.logger.Debug("check aborted", "group", label, "error", err)
				return res, err
			}
			d.logger.Debug("check finished", "group", label, "label", res.Label, "success", res.Success)
			return res, nil
		}
	}
	return RunUntilFail(ctx, label, traced, final)
}

// settle turns an authorization error that escaped a composite into the
// composite's catch-all leaf, keeping the partial trace. Other errors pass through.
func (d *Diagnoser) settle(res Result, err error, fallback Result) (Result, error) {
	if err == nil {
		return res, nil
	}
	if !host.IsCommandError(err) {
		return res, err
	}
	d.logger.Debug("falling back to catch-all", "group", res.Label, "fallback", fallback.Label, "error", err)
	details := append(slices.Clone(res.Children()), fallback)
	return Result{
		Success:    fallback.Success,
		Label:      res.Label,
		Details:    Children(details),
		Resolution: fallback.Resolution,
	}, nil
}

func (d *Diagnoser) formatCommandName(name string) string {
	return chatfmt.Inline(d.original.CleanPrefix + name)
}

// commandErrorResult builds a leaf for a failed check, quoting the check's own
// message when it raised one.
func (d *Diagnoser) commandErrorResult(msg, label, withMessage, withoutMessage string) Result {
	name := d.formatCommandName(d.current.QualifiedName())
	if msg != "" {
		return Fail(label, fmt.Sprintf(withMessage, name, msg), "")
	}
	return Fail(label, fmt.Sprintf(withoutMessage, name), "")
}

var unidentifiedIssue = Fail(
	"Other issues",
	"The host rejected the command for a reason none of the checks above could isolate.",
	"To fix this issue, a manual review of the installed cogs is required.",
)
