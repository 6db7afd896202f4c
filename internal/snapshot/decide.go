package snapshot

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/cmddoctor/internal/host"
)

var _ host.Host = (*Host)(nil)

func parseHookResult(s string) (host.HookResult, error) {
	switch strings.ToLower(s) {
	case "", "unset":
		return host.HookUnset, nil
	case "allow":
		return host.HookAllow, nil
	case "deny":
		return host.HookDeny, nil
	default:
		return host.HookUnset, fmt.Errorf("unknown hook result %q (want allow, deny or unset)", s)
	}
}

// runCheck turns a configured outcome into the host's signalling: a failing
// check with a message raises it, one without returns false.
func runCheck(c CheckConfig) (bool, error) {
	if !c.Fail {
		return true, nil
	}
	if c.Message != "" {
		return false, &host.CommandError{Message: c.Message}
	}
	return false, nil
}

func runChecks(checks []CheckConfig) (bool, error) {
	for _, c := range checks {
		if ok, err := runCheck(c); !ok || err != nil {
			return ok, err
		}
	}
	return true, nil
}

func (h *Host) isOwner(id int64) bool {
	return h.owners[id]
}

// GetContext parses the message the way the framework does. Messages from
// bots are not parsed for a prefix, so their context carries no command.
func (h *Host) GetContext(ctx context.Context, msg host.Message) (host.Invocation, error) {
	if _, err := h.guildOf(msg.Channel); err != nil {
		return host.Invocation{}, err
	}
	if msg.Author == nil {
		return host.Invocation{}, fmt.Errorf("message has no author")
	}
	inv := host.Invocation{Message: msg}
	if msg.Author.Bot {
		return inv, nil
	}
	rest, ok := strings.CutPrefix(msg.Content, h.snap.Prefix)
	if !ok {
		return inv, nil
	}
	inv.Prefix = h.snap.Prefix
	inv.CleanPrefix = h.snap.Prefix

	words := strings.Fields(rest)
	for n := len(words); n > 0; n-- {
		if cmd := h.commands[strings.Join(words[:n], " ")]; cmd != nil {
			inv.Command = cmd
			break
		}
	}
	return inv, nil
}

// CanRun evaluates the bot-wide checks. The call-once variant holds the
// framework's own global gates followed by the installed call-once checks.
func (h *Host) CanRun(ctx context.Context, inv host.Invocation, callOnce bool) (bool, error) {
	if !callOnce {
		return runChecks(h.snap.GlobalChecks)
	}
	msg := inv.Message
	if msg.Author.Bot {
		return false, nil
	}
	perms, err := h.BotPermissions(ctx, msg.Channel)
	if err != nil {
		return false, err
	}
	if !perms.Has("send_messages") {
		return false, nil
	}
	if ignored, err := h.IgnoredChannelOrGuild(ctx, msg); err != nil || ignored {
		return false, err
	}
	if ok, err := h.AllowedByLists(ctx, msg.Author, msg.Author.ID, msg.Channel.Guild.ID); err != nil || !ok {
		return false, err
	}
	return runChecks(h.snap.CallOnceChecks)
}

// BotPermissions returns the bot member's permissions in channel.
func (h *Host) BotPermissions(ctx context.Context, channel *host.Channel) (host.Permissions, error) {
	gs, err := h.guildOf(channel)
	if err != nil {
		return nil, err
	}
	me := gs.member(h.snap.Bot.ID)
	if me == nil {
		return nil, fmt.Errorf("bot is not a member of guild %d", gs.guild.ID)
	}
	return gs.permissionsFor(channel, me), nil
}

// IgnoredChannelOrGuild applies the ignore lists. Owners, admins and members
// able to manage the server are never ignored.
func (h *Host) IgnoredChannelOrGuild(ctx context.Context, msg host.Message) (bool, error) {
	gs, err := h.guildOf(msg.Channel)
	if err != nil {
		return false, err
	}
	if gs.permissionsFor(msg.Channel, msg.Author).Has("manage_guild") ||
		h.privilegeOf(gs, msg.Author) >= host.PrivilegeAdmin {
		return false, nil
	}
	if gs.cfg.Ignored {
		return true, nil
	}
	for _, c := range gs.cfg.Channels {
		if c.ID != msg.Channel.ID {
			continue
		}
		if c.Ignored {
			return true, nil
		}
		for _, cat := range gs.cfg.Categories {
			if cat.ID == c.Category && cat.Ignored {
				return true, nil
			}
		}
	}
	return false, nil
}

// AllowedByLists evaluates the global lists, then the guild's local lists
// against the member ID and role IDs. Allowlists take precedence over blocklists.
func (h *Host) AllowedByLists(ctx context.Context, member *host.Member, whoID, guildID int64) (bool, error) {
	if h.isOwner(whoID) {
		return true, nil
	}
	if len(h.snap.GlobalAllowlist) > 0 {
		if !slices.Contains(h.snap.GlobalAllowlist, whoID) {
			return false, nil
		}
	} else if slices.Contains(h.snap.GlobalBlocklist, whoID) {
		return false, nil
	}
	if guildID == 0 {
		return true, nil
	}

	gs, ok := h.guilds[guildID]
	if !ok {
		return false, fmt.Errorf("guild %d is not part of the snapshot", guildID)
	}
	if gs.guild.OwnerID == whoID {
		return true, nil
	}
	ids := []int64{whoID}
	if member != nil {
		ids = append(ids, member.RoleIDs()...)
	}
	matches := func(list []int64) bool {
		return slices.ContainsFunc(ids, func(id int64) bool { return slices.Contains(list, id) })
	}
	if len(gs.cfg.LocalAllowlist) > 0 {
		return matches(gs.cfg.LocalAllowlist), nil
	}
	return !matches(gs.cfg.LocalBlocklist), nil
}

// CommandCanRun is the full per-command decision: enabled state, base checks
// and requirement verification for the cog and then the command. The
// permission state advances along the chain and is only handed back when
// opts.ChangePermissionState is set.
func (h *Host) CommandCanRun(ctx context.Context, inv host.Invocation, cmd *host.Command, opts host.CanRunOptions) (host.Verdict, error) {
	chain := []*host.Command{cmd}
	if opts.CheckAllParents {
		chain = cmd.Chain()
	}

	state := inv.PermState
	for _, node := range chain {
		if !node.Enabled {
			return host.Verdict{State: inv.PermState}, &host.DisabledCommandError{Name: node.QualifiedName()}
		}
		step := inv.WithCommand(node).WithPermState(state)
		if ok, err := h.BaseCanRun(ctx, step, node); err != nil || !ok {
			return host.Verdict{State: inv.PermState}, err
		}
		targets := []host.Requirer{node}
		if node.Cog != nil {
			targets = []host.Requirer{node.Cog, node}
		}
		for _, target := range targets {
			v, err := h.Verify(ctx, step.WithPermState(state), target)
			if err != nil || !v.Allowed {
				return host.Verdict{State: inv.PermState}, err
			}
			state = v.State
		}
	}

	if !opts.ChangePermissionState {
		state = inv.PermState
	}
	return host.Verdict{Allowed: true, State: state}, nil
}

// BaseCanRun covers the guild-level disable switch, the bot-level checks, the
// cog check and the command's predicates.
func (h *Host) BaseCanRun(ctx context.Context, inv host.Invocation, cmd *host.Command) (bool, error) {
	gs, err := h.guildOf(inv.Message.Channel)
	if err != nil {
		return false, err
	}
	for _, node := range cmd.Chain() {
		if slices.Contains(gs.cfg.DisabledCommands, node.QualifiedName()) {
			return false, &host.DisabledCommandError{Name: node.QualifiedName()}
		}
	}
	if ok, err := h.CanRun(ctx, inv, false); err != nil || !ok {
		return ok, err
	}
	if cmd.Cog != nil {
		if ok, err := h.CogCheck(ctx, inv, cmd.Cog); err != nil || !ok {
			return ok, err
		}
	}
	return h.CommandChecks(ctx, inv, cmd)
}

// CogCheck runs the cog's configured check, if any.
func (h *Host) CogCheck(ctx context.Context, inv host.Invocation, cog *host.Cog) (bool, error) {
	check, ok := h.cogChecks[cog.Name]
	if !ok {
		return true, nil
	}
	return runCheck(check)
}

// CommandChecks runs the command's predicates in declaration order.
func (h *Host) CommandChecks(ctx context.Context, inv host.Invocation, cmd *host.Command) (bool, error) {
	return runChecks(h.commandChecks[cmd])
}

// Verify replays requirement verification for a cog or command:
// bot permissions, owner bypass, disabled cog, permission hooks, rules,
// and finally the member's permissions and privilege level.
func (h *Host) Verify(ctx context.Context, inv host.Invocation, target host.Requirer) (host.Verdict, error) {
	msg := inv.Message
	gs, err := h.guildOf(msg.Channel)
	if err != nil {
		return host.Verdict{}, err
	}
	req := target.Requires()
	botPerms, err := h.BotPermissions(ctx, msg.Channel)
	if err != nil {
		return host.Verdict{}, err
	}
	if missing := botPerms.Missing(req.BotPermissions); len(missing) > 0 {
		return host.Verdict{State: inv.PermState}, &host.BotMissingPermissionsError{Missing: missing}
	}

	if h.isOwner(msg.Author.ID) {
		return host.Verdict{Allowed: true, State: inv.PermState}, nil
	}

	cogName := ""
	switch t := target.(type) {
	case *host.Cog:
		cogName = t.Name
	case *host.Command:
		if t.Cog != nil {
			cogName = t.Cog.Name
		}
	}
	if cogName != "" && slices.Contains(gs.cfg.DisabledCogs, cogName) {
		return host.Verdict{State: inv.PermState}, &host.DisabledCommandError{Name: cogName}
	}

	hook, err := h.VerifyPermissionHooks(ctx, inv)
	if err != nil {
		return host.Verdict{}, err
	}
	switch hook {
	case host.HookAllow:
		return host.Verdict{Allowed: true, State: host.PermAllowedByHook}, nil
	case host.HookDeny:
		return host.Verdict{State: host.PermDeniedByHook}, nil
	}

	if state, ruled := ruleState(gs, target.QualifiedName(), msg.Author); ruled {
		return host.Verdict{Allowed: state == host.PermActiveAllow, State: state}, nil
	}
	if inv.PermState == host.PermActiveAllow || inv.PermState == host.PermPassiveAllow {
		return host.Verdict{Allowed: true, State: host.PermPassiveAllow}, nil
	}

	allowed := h.verifyUser(gs, msg.Channel, msg.Author, req)
	return host.Verdict{Allowed: allowed, State: host.PermNormal}, nil
}

// ruleState applies the guild's explicit rules for target. Deny wins.
func ruleState(gs *guildState, target string, member *host.Member) (host.PermState, bool) {
	ids := append([]int64{member.ID}, member.RoleIDs()...)
	hit := func(list []int64) bool {
		return slices.ContainsFunc(ids, func(id int64) bool { return slices.Contains(list, id) })
	}
	for _, r := range gs.cfg.Rules {
		if r.Target != target {
			continue
		}
		if hit(r.Deny) {
			return host.PermActiveDeny, true
		}
		if hit(r.Allow) {
			return host.PermActiveAllow, true
		}
	}
	return host.PermNormal, false
}

// verifyUser passes when the member holds the required channel permissions,
// or otherwise meets the privilege level. With user permissions set and no
// privilege level, the permissions are the only way in.
func (h *Host) verifyUser(gs *guildState, channel *host.Channel, member *host.Member, req host.Requirements) bool {
	if len(req.UserPermissions) > 0 {
		if len(gs.permissionsFor(channel, member).Missing(req.UserPermissions)) == 0 {
			return true
		}
		if req.Privilege == host.PrivilegeNone {
			return false
		}
	}
	return h.privilegeOf(gs, member) >= req.Privilege
}

func (h *Host) privilegeOf(gs *guildState, member *host.Member) host.PrivilegeLevel {
	roleIn := func(list []int64) bool {
		return slices.ContainsFunc(member.RoleIDs(), func(id int64) bool { return slices.Contains(list, id) })
	}
	switch {
	case h.isOwner(member.ID):
		return host.PrivilegeBotOwner
	case gs.guild.OwnerID == member.ID:
		return host.PrivilegeGuildOwner
	case roleIn(gs.cfg.AdminRoles):
		return host.PrivilegeAdmin
	case roleIn(gs.cfg.ModRoles):
		return host.PrivilegeMod
	default:
		return host.PrivilegeNone
	}
}

// VerifyPermissionHooks combines the hooks that apply to the invocation's
// command: any deny wins, then any allow, else unset.
func (h *Host) VerifyPermissionHooks(ctx context.Context, inv host.Invocation) (host.HookResult, error) {
	result := host.HookUnset
	for _, hook := range h.snap.PermissionHooks {
		if !hookApplies(hook, inv.Command) {
			continue
		}
		r, err := parseHookResult(hook.Result)
		if err != nil {
			return host.HookUnset, err
		}
		switch r {
		case host.HookDeny:
			return host.HookDeny, nil
		case host.HookAllow:
			result = host.HookAllow
		}
	}
	return result, nil
}

func hookApplies(hook HookConfig, cmd *host.Command) bool {
	if len(hook.Commands) == 0 {
		return true
	}
	if cmd == nil {
		return false
	}
	if slices.Contains(hook.Commands, cmd.QualifiedName()) {
		return true
	}
	return cmd.Cog != nil && slices.Contains(hook.Commands, cmd.Cog.Name)
}
