package diagnose

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/cmddoctor/internal/chatfmt"
	"github.com/ppiankov/cmddoctor/internal/host"
)

var permissionSources = Fail(
	"User's discord permissions, privilege level and rules from Permissions cog",
	"One of the above is the issue.",
	"To fix this issue, verify each of these and determine which part is the issue.",
)

func (d *Diagnoser) checkRequires(ctx context.Context) (Result, error) {
	return d.checkRequiresImpl(ctx, "Check permissions", d.current)
}

func (d *Diagnoser) checkRequiresCog(ctx context.Context) (Result, error) {
	cog := d.current.Cog
	if cog == nil {
		return Pass("Check permissions for the cog"), nil
	}
	label := fmt.Sprintf("Check permissions for %s", chatfmt.Inline(cog.Name))
	return d.checkRequiresImpl(ctx, label, cog)
}

// checkRequiresImpl replays requirement verification for a cog or command.
// Only the disabled-cog and missing-bot-permissions errors are handled here;
// any other authorization error is left to the enclosing composite.
func (d *Diagnoser) checkRequiresImpl(ctx context.Context, label string, target host.Requirer) (Result, error) {
	saved := d.state
	v, err := d.host.Verify(ctx, d.invocation(), target)

	var disabled *host.DisabledCommandError
	var missing *host.BotMissingPermissionsError
	switch {
	case errors.As(err, &disabled):
		cogName := target.QualifiedName()
		if cog := d.current.Cog; cog != nil {
			cogName = cog.Name
		}
		return Fail(label,
			"The cog of the given command is disabled in this guild.",
			fmt.Sprintf("To fix this issue, you can run %s which will enable the %s cog in this guild.",
				d.formatCommandName("command enablecog "+cogName), chatfmt.Inline(cogName)),
		), nil
	case errors.As(err, &missing):
		// "some" covers a single permission too.
		var detail string
		if _, isCog := target.(*host.Cog); isCog {
			detail = fmt.Sprintf("Bot is missing some of the channel permissions (%s) required by the %s cog.",
				chatfmt.FormatPermsList(missing.Missing), chatfmt.Inline(target.QualifiedName()))
		} else {
			detail = fmt.Sprintf("Bot is missing some of the channel permissions (%s) required by the %s command.",
				chatfmt.FormatPermsList(missing.Missing), d.formatCommandName(target.QualifiedName()))
		}
		return Fail(label, detail,
			"To fix this issue, grant the required permissions to the bot through role settings or channel overrides.",
		), nil
	case err != nil:
		return Result{Label: label}, err
	}
	if v.Allowed {
		d.state = v.State
		return Pass(label), nil
	}

	d.state = saved
	return d.run(ctx, label, []Check{
		func(ctx context.Context) (Result, error) { return d.checkRequiresBotOwner(ctx, target) },
		d.checkRequiresPermissionHooks,
	}, &permissionSources)
}

func (d *Diagnoser) checkRequiresBotOwner(ctx context.Context, target host.Requirer) (Result, error) {
	const label = "Ensure that the command is not bot owner only"
	if target.Requires().Privilege != host.PrivilegeBotOwner {
		return Pass(label), nil
	}
	// A bot owner would have passed verification already.
	return Fail(label,
		"The command is bot owner only and the given user is not a bot owner.",
		"This cannot be fixed - regular users cannot run bot owner only commands.",
	), nil
}

func (d *Diagnoser) checkRequiresPermissionHooks(ctx context.Context) (Result, error) {
	const label = "Check the result of permission hooks"
	result, err := d.host.VerifyPermissionHooks(ctx, d.invocation())
	if err != nil {
		return Result{}, err
	}
	switch result {
	case host.HookUnset:
		return Pass(label), nil
	case host.HookAllow:
		// Verification would have passed with an allowing hook.
		return Fail(label,
			"Fatal error: the result of permission hooks is inconsistent.",
			"To fix this issue, a manual review of the installed cogs is required.",
		), nil
	default:
		return Fail(label,
			"The access has been denied by one of the bot's permissions hooks.",
			"To fix this issue, a manual review of the installed cogs is required.",
		), nil
	}
}
