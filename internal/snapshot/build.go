package snapshot

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/cmddoctor/internal/host"
)

type guildState struct {
	guild      *host.Guild
	cfg        GuildConfig
	categories map[int64]*host.Category
	channels   []*host.Channel
	members    []*host.Member
	rolePerms  map[int64]host.Permissions
	overwrites map[int64][]OverwriteConfig
}

// Host answers authorization queries from a Snapshot. It is read-only after
// construction and safe for concurrent use.
type Host struct {
	snap          *Snapshot
	owners        map[int64]bool
	cogs          map[string]*host.Cog
	cogChecks     map[string]CheckConfig
	commands      map[string]*host.Command
	commandChecks map[*host.Command][]CheckConfig
	guilds        map[int64]*guildState
	channels      map[int64]*guildState
}

// New validates snap and resolves it into a Host.
func New(snap *Snapshot) (*Host, error) {
	problems := snap.Validate()
	if HasErrors(problems) {
		var errs []error
		for _, p := range problems {
			if p.Severity == SevError {
				errs = append(errs, errors.New(p.String()))
			}
		}
		return nil, fmt.Errorf("invalid snapshot: %w", errors.Join(errs...))
	}

	h := &Host{
		snap:          snap,
		owners:        map[int64]bool{},
		cogs:          map[string]*host.Cog{},
		cogChecks:     map[string]CheckConfig{},
		commands:      map[string]*host.Command{},
		commandChecks: map[*host.Command][]CheckConfig{},
		guilds:        map[int64]*guildState{},
		channels:      map[int64]*guildState{},
	}
	for _, id := range snap.Owners {
		h.owners[id] = true
	}

	// Validate has already rejected unknown permissions and privilege levels.
	for _, c := range snap.Cogs {
		cog := &host.Cog{Name: c.Name, Requirements: mustRequirements(c.Requires)}
		if c.Check != nil {
			cog.HasCheck = true
			h.cogChecks[c.Name] = *c.Check
		}
		h.cogs[c.Name] = cog
	}
	h.addCommands(nil, "", snap.Commands)

	for _, g := range snap.Guilds {
		h.addGuild(g)
	}
	return h, nil
}

func mustRequirements(r RequiresConfig) host.Requirements {
	level, _ := host.ParsePrivilegeLevel(r.Privilege)
	bot, _ := host.ParsePermissions(r.BotPermissions)
	user, _ := host.ParsePermissions(r.UserPermissions)
	return host.Requirements{Privilege: level, BotPermissions: bot, UserPermissions: user}
}

func (h *Host) addCommands(parent *host.Command, cog string, cmds []CommandConfig) {
	for _, c := range cmds {
		own := c.Cog
		if own == "" {
			own = cog
		}
		cmd := &host.Command{
			Name:         c.Name,
			Parent:       parent,
			Cog:          h.cogs[own],
			Enabled:      !c.Disabled,
			Requirements: mustRequirements(c.Requires),
		}
		for _, check := range c.Checks {
			cmd.Checks = append(cmd.Checks, check.Name)
		}
		h.commands[cmd.QualifiedName()] = cmd
		h.commandChecks[cmd] = c.Checks
		h.addCommands(cmd, own, c.Subcommands)
	}
}

func (h *Host) addGuild(g GuildConfig) {
	gs := &guildState{
		guild:      &host.Guild{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID},
		cfg:        g,
		categories: map[int64]*host.Category{},
		rolePerms:  map[int64]host.Permissions{},
		overwrites: map[int64][]OverwriteConfig{},
	}
	roles := map[int64]host.Role{}
	for _, r := range g.Roles {
		roles[r.ID] = host.Role{ID: r.ID, Name: r.Name}
		gs.rolePerms[r.ID], _ = host.ParsePermissions(r.Permissions)
	}
	for _, c := range g.Categories {
		gs.categories[c.ID] = &host.Category{ID: c.ID, Name: c.Name}
	}
	for _, c := range g.Channels {
		ch := &host.Channel{ID: c.ID, Name: c.Name, Guild: gs.guild, Category: gs.categories[c.Category]}
		gs.channels = append(gs.channels, ch)
		gs.overwrites[c.ID] = c.Overwrites
		h.channels[c.ID] = gs
	}
	for _, m := range g.Members {
		member := &host.Member{ID: m.ID, Name: m.Name, Bot: m.Bot}
		for _, r := range m.Roles {
			member.Roles = append(member.Roles, roles[r])
		}
		gs.members = append(gs.members, member)
	}
	h.guilds[g.ID] = gs
}

// ResolveChannel finds a channel by ID or name ("general" or "#general").
func (h *Host) ResolveChannel(ref string) (*host.Channel, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	var found []*host.Channel
	for _, gs := range h.guilds {
		for _, ch := range gs.channels {
			if ch.Name == ref || fmt.Sprint(ch.ID) == ref {
				found = append(found, ch)
			}
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("channel %q: %w", ref, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("channel name %q is ambiguous, use its ID", ref)
	}
}

// ResolveMember finds a member of the channel's guild by ID or name.
func (h *Host) ResolveMember(channel *host.Channel, ref string) (*host.Member, error) {
	gs, err := h.guildOf(channel)
	if err != nil {
		return nil, err
	}
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "@")
	for _, m := range gs.members {
		if m.Name == ref || fmt.Sprint(m.ID) == ref {
			return m, nil
		}
	}
	return nil, fmt.Errorf("member %q in guild %q: %w", ref, gs.guild.Name, ErrNotFound)
}

// ResolveCommand finds a command by its qualified name.
// It returns nil when there is no such command.
func (h *Host) ResolveCommand(name string) *host.Command {
	return h.commands[strings.Join(strings.Fields(name), " ")]
}

// Invoker builds the context a diagnosis is requested from: the first bot
// owner asking in channel.
func (h *Host) Invoker(channel *host.Channel) host.Invocation {
	owner := &host.Member{Name: "owner"}
	if len(h.snap.Owners) > 0 {
		owner.ID = h.snap.Owners[0]
	}
	if gs, err := h.guildOf(channel); err == nil {
		if m := gs.member(owner.ID); m != nil {
			owner = m
		}
	}
	return host.Invocation{
		Message: host.Message{
			Author:  owner,
			Channel: channel,
			Content: h.snap.Prefix + "diagnoseissues",
		},
		Prefix:      h.snap.Prefix,
		CleanPrefix: h.snap.Prefix,
	}
}

// MemberCanSend reports whether member may post in channel.
func (h *Host) MemberCanSend(channel *host.Channel, member *host.Member) bool {
	gs, err := h.guildOf(channel)
	if err != nil {
		return false
	}
	return gs.permissionsFor(channel, member).Has("send_messages")
}

func (h *Host) guildOf(channel *host.Channel) (*guildState, error) {
	if channel == nil {
		return nil, fmt.Errorf("no channel")
	}
	gs, ok := h.channels[channel.ID]
	if !ok {
		return nil, fmt.Errorf("channel %d is not part of the snapshot", channel.ID)
	}
	return gs, nil
}

func (gs *guildState) member(id int64) *host.Member {
	for _, m := range gs.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// permissionsFor applies role permissions and then channel overwrites in the
// platform's order: @everyone, roles, member. The implicit channel rules of
// Permissions.Effective are applied last.
func (gs *guildState) permissionsFor(channel *host.Channel, member *host.Member) host.Permissions {
	all := host.Permissions(slices.Clone(host.Known))
	if member.ID == gs.guild.OwnerID {
		return all
	}
	base := gs.rolePerms[gs.guild.ID]
	for _, r := range member.Roles {
		base = base.Union(gs.rolePerms[r.ID])
	}
	if slices.Contains(base, "administrator") {
		return all
	}

	var everyone, personal *OverwriteConfig
	var roleAllow, roleDeny host.Permissions
	roleIDs := member.RoleIDs()
	for i, o := range gs.overwrites[channel.ID] {
		switch {
		case o.ID == gs.guild.ID:
			everyone = &gs.overwrites[channel.ID][i]
		case o.ID == member.ID:
			personal = &gs.overwrites[channel.ID][i]
		case slices.Contains(roleIDs, o.ID):
			roleAllow = roleAllow.Union(o.Allow)
			roleDeny = roleDeny.Union(o.Deny)
		}
	}
	perms := base
	if everyone != nil {
		perms = perms.Without(everyone.Deny).Union(everyone.Allow)
	}
	perms = perms.Without(roleDeny).Union(roleAllow)
	if personal != nil {
		perms = perms.Without(personal.Deny).Union(personal.Allow)
	}
	return perms.Effective()
}

// Channels lists every channel of every guild, ordered by ID.
func (h *Host) Channels() []*host.Channel {
	var out []*host.Channel
	for _, gs := range h.guilds {
		out = append(out, gs.channels...)
	}
	slices.SortFunc(out, func(a, b *host.Channel) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Members lists the members of the channel's guild in snapshot order.
func (h *Host) Members(channel *host.Channel) []*host.Member {
	gs, err := h.guildOf(channel)
	if err != nil {
		return nil
	}
	return slices.Clone(gs.members)
}

// Commands lists every command and subcommand, ordered by qualified name.
func (h *Host) Commands() []*host.Command {
	out := make([]*host.Command, 0, len(h.commands))
	for _, cmd := range h.commands {
		out = append(out, cmd)
	}
	slices.SortFunc(out, func(a, b *host.Command) int { return strings.Compare(a.QualifiedName(), b.QualifiedName()) })
	return out
}
