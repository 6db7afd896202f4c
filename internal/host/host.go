// Package host describes the authorization API of the bot framework being
// diagnosed. Implementations answer the same questions the framework asks
// itself before it dispatches a command; none of the calls may have side
// effects on the running bot.
package host

import "context"

// CanRunOptions selects the variant of a command's full can-run decision.
type CanRunOptions struct {
	// CheckAllParents also evaluates every ancestor of the command, root first.
	CheckAllParents bool
	// ChangePermissionState lets the call advance the invocation's PermState.
	ChangePermissionState bool
}

// Verdict is a boolean decision plus the permission state it leaves behind.
type Verdict struct {
	Allowed bool
	State   PermState
}

// Host is the authorization oracle. Negative decisions are reported either as
// a false result or as one of the structured errors in errors.go.
type Host interface {
	// GetContext resolves an execution context from a message without dispatching it.
	GetContext(ctx context.Context, msg Message) (Invocation, error)

	// CanRun evaluates the bot-wide global checks. With callOnce set it
	// evaluates the checks run once per top-level invocation instead.
	CanRun(ctx context.Context, inv Invocation, callOnce bool) (bool, error)

	// BotPermissions returns the bot's effective permissions in channel.
	BotPermissions(ctx context.Context, channel *Channel) (Permissions, error)

	// IgnoredChannelOrGuild reports whether the bot ignores commands in the
	// message's channel, its category or its guild.
	IgnoredChannelOrGuild(ctx context.Context, msg Message) (bool, error)

	// AllowedByLists evaluates allow and block lists. A zero guildID restricts
	// the query to the global lists. A nil member evaluates only whoID, so role
	// membership is not considered.
	AllowedByLists(ctx context.Context, member *Member, whoID, guildID int64) (bool, error)

	// CommandCanRun is the framework's full decision for one command,
	// including requirement verification.
	CommandCanRun(ctx context.Context, inv Invocation, cmd *Command, opts CanRunOptions) (Verdict, error)

	// BaseCanRun is the lower-level decision without requirement verification:
	// enabled state in the guild, bot-level checks, cog check and command predicates.
	BaseCanRun(ctx context.Context, inv Invocation, cmd *Command) (bool, error)

	// CogCheck runs the cog's local check. Cogs without one pass.
	CogCheck(ctx context.Context, inv Invocation, cog *Cog) (bool, error)

	// CommandChecks runs the command's own predicates. All must pass.
	CommandChecks(ctx context.Context, inv Invocation, cmd *Command) (bool, error)

	// Verify runs requirement verification for a cog or command.
	Verify(ctx context.Context, inv Invocation, target Requirer) (Verdict, error)

	// VerifyPermissionHooks asks the installed permission hooks for a verdict.
	VerifyPermissionHooks(ctx context.Context, inv Invocation) (HookResult, error)
}
