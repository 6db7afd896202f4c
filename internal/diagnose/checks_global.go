package diagnose

import (
	"context"
	"fmt"

	"github.com/ppiankov/cmddoctor/internal/host"
)

var thirdPartyGlobalChecks = Fail(
	"Other 'global call once checks'",
	"One of the 'global call once checks' implemented by a 3rd-party cog prevents this command from being ran.",
	"To fix this issue, a manual review of the installed cogs is required.",
)

// checkGlobalChecks runs the call-once global checks as the host would and only
// narrows down to the individual built-in checks when they fail, so the
// host's checks are not evaluated twice on the happy path.
func (d *Diagnoser) checkGlobalChecks(ctx context.Context) (Result, error) {
	const label = "Global checks"
	ok, err := d.host.CanRun(ctx, d.invocation(), true)
	if err != nil && !host.IsCommandError(err) {
		return Result{}, err
	}
	if err == nil && ok {
		return Pass(label), nil
	}

	res, err := d.run(ctx, label, []Check{
		d.checkIsAuthorBot,
		d.checkCanBotSendMessages,
		d.checkIgnoredIssues,
		d.checkAllowAndBlockLists,
	}, &thirdPartyGlobalChecks)
	return d.settle(res, err, thirdPartyGlobalChecks)
}

func (d *Diagnoser) checkIsAuthorBot(ctx context.Context) (Result, error) {
	const label = "Check if the command caller is not a bot"
	if !d.author.Bot {
		return Pass(label), nil
	}
	return Fail(
		label,
		"The user is a bot which prevents them from running any command.",
		"This cannot be fixed - bots should not be listening to other bots.",
	), nil
}

func (d *Diagnoser) checkCanBotSendMessages(ctx context.Context) (Result, error) {
	const label = "Check if the bot can send messages in the given channel"
	perms, err := d.host.BotPermissions(ctx, d.channel)
	if err != nil {
		return Result{}, err
	}
	if perms.Has("send_messages") {
		return Pass(label), nil
	}
	return Fail(
		label,
		"Bot doesn't have permission to send messages in the given channel.",
		"To fix this issue, ensure that the permissions setup allows the bot"+
			" to send messages per Discord's role hierarchy:\n"+
			"https://support.discord.com/hc/en-us/articles/206141927",
	), nil
}

// The ignore and list checks below only say which list blocks the member.
// Pinpointing the entry would need the host's private list storage.
func (d *Diagnoser) checkIgnoredIssues(ctx context.Context) (Result, error) {
	const label = "Check if the channel and the server aren't set to be ignored"
	ignored, err := d.host.IgnoredChannelOrGuild(ctx, d.message)
	if err != nil {
		return Result{}, err
	}
	if !ignored {
		return Pass(label), nil
	}

	var resolution string
	if d.channel.Category == nil {
		resolution = fmt.Sprintf(
			"To fix this issue, check the list returned by the %s command"+
				" and ensure that the %s channel and the server aren't a part of that list.",
			d.formatCommandName("ignore list"), d.channel.Mention(),
		)
	} else {
		resolution = fmt.Sprintf(
			"To fix this issue, check the list returned by the %s command"+
				" and ensure that the %s channel,"+
				" the channel category it belongs to (%s),"+
				" and the server aren't a part of that list.",
			d.formatCommandName("ignore list"), d.channel.Mention(), d.channel.Category.Mention(),
		)
	}
	return Fail(
		label,
		"The bot is set to ignore commands in the given channel or this server.",
		resolution,
	), nil
}

func (d *Diagnoser) checkAllowAndBlockLists(ctx context.Context) (Result, error) {
	const label = "Allowlist and blocklist checks"
	allowed, err := d.host.AllowedByLists(ctx, d.author, d.author.ID, d.guild.ID)
	if err != nil {
		return Result{}, err
	}
	if allowed {
		return Pass(label), nil
	}

	globallyAllowed, err := d.host.AllowedByLists(ctx, nil, d.author.ID, 0)
	if err != nil {
		return Result{}, err
	}
	if !globallyAllowed {
		return Fail(
			label,
			"Global allowlist or blocklist prevents the user from running this command.",
			fmt.Sprintf(
				"To fix this issue, check the lists returned by %s and %s commands,"+
					" and ensure that the given user's ID (%d) isn't a part of the blocklist"+
					" and, if the allowlist is not empty, that it is a part of the allowlist.",
				d.formatCommandName("allowlist list"), d.formatCommandName("blocklist list"), d.author.ID,
			),
		), nil
	}

	userAllowed, err := d.host.AllowedByLists(ctx, nil, d.author.ID, d.guild.ID)
	if err != nil {
		return Result{}, err
	}
	if userAllowed {
		return Fail(
			label,
			"Local allowlist or blocklist prevents one of the roles the user has from running this command.",
			fmt.Sprintf(
				"To fix this issue, check the lists returned by %s and %s commands,"+
					" and ensure that none of the IDs of the given user's roles are a part of the blocklist"+
					" and, if the allowlist is not empty, that one of them is a part of the allowlist.",
				d.formatCommandName("localallowlist list"), d.formatCommandName("localblocklist list"),
			),
		), nil
	}

	return Fail(
		label,
		"Local allowlist or blocklist prevents the user from running this command.",
		fmt.Sprintf(
			"To fix this issue, check the lists returned by %s and %s commands,"+
				" and ensure that the given user's ID (%d) isn't a part of the blocklist"+
				" and, if the allowlist is not empty, that it is a part of the allowlist.",
			d.formatCommandName("localallowlist list"), d.formatCommandName("localblocklist list"), d.author.ID,
		),
	), nil
}

// checkDisabledCommand walks from the root ancestor down to the command and
// reports the first node disabled globally.
func (d *Diagnoser) checkDisabledCommand(ctx context.Context) (Result, error) {
	const label = "Check if the command is disabled"
	cmd := d.current
	for _, node := range cmd.Chain() {
		if node.Enabled {
			continue
		}
		detail := "The given command is disabled globally."
		if node != cmd {
			detail = "One of the parents of the given command is disabled globally."
		}
		return Fail(label, detail, fmt.Sprintf(
			"To fix this issue, you can run %s which will enable the %s command globally.",
			d.formatCommandName("command enable global "+node.QualifiedName()),
			d.formatCommandName(node.QualifiedName()),
		)), nil
	}
	return Pass(label), nil
}
