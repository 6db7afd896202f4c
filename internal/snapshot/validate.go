package snapshot

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/cmddoctor/internal/host"
)

// Severity grades a Problem. Errors prevent building a Host.
type Severity string

const (
	SevError   Severity = "error"
	SevWarning Severity = "warning"
)

// Problem is one inconsistency found in a snapshot.
type Problem struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Path, p.Message)
}

// HasErrors reports whether any problem is an error.
func HasErrors(problems []Problem) bool {
	return slices.ContainsFunc(problems, func(p Problem) bool { return p.Severity == SevError })
}

type validator struct {
	problems []Problem
}

func (v *validator) errorf(path, format string, args ...any) {
	v.problems = append(v.problems, Problem{SevError, path, fmt.Sprintf(format, args...)})
}

func (v *validator) warnf(path, format string, args ...any) {
	v.problems = append(v.problems, Problem{SevWarning, path, fmt.Sprintf(format, args...)})
}

func (v *validator) perms(path string, names []string) {
	if _, err := host.ParsePermissions(names); err != nil {
		v.errorf(path, "%v", err)
	}
}

func (v *validator) requires(path string, r RequiresConfig) {
	if _, err := host.ParsePrivilegeLevel(r.Privilege); err != nil {
		v.errorf(path+".privilege", "%v", err)
	}
	v.perms(path+".bot_permissions", r.BotPermissions)
	v.perms(path+".user_permissions", r.UserPermissions)
}

// Validate checks the snapshot for inconsistencies. It never stops at the
// first problem so that a single run lists everything to fix.
func (s *Snapshot) Validate() []Problem {
	v := &validator{}

	if s.Version < 0 || s.Version > FormatVersion {
		v.errorf("version", "unsupported snapshot format version %d (this build reads up to %d)", s.Version, FormatVersion)
	}
	if s.Bot.ID == 0 {
		v.errorf("bot.id", "bot user ID is required")
	}
	if len(s.Owners) == 0 {
		v.warnf("owners", "no bot owners configured; owner-only commands can never pass")
	}

	cogs := map[string]bool{}
	for i, c := range s.Cogs {
		path := fmt.Sprintf("cogs[%d]", i)
		if c.Name == "" {
			v.errorf(path+".name", "cog name is required")
		}
		if cogs[c.Name] {
			v.errorf(path+".name", "duplicate cog %q", c.Name)
		}
		cogs[c.Name] = true
		v.requires(path+".requires", c.Requires)
	}

	commands := map[string]bool{}
	var walk func(path, parent, cog string, cmds []CommandConfig)
	walk = func(path, parent, cog string, cmds []CommandConfig) {
		for i, c := range cmds {
			p := fmt.Sprintf("%s[%d]", path, i)
			if c.Name == "" || strings.ContainsAny(c.Name, " \t") {
				v.errorf(p+".name", "command name %q must be a single non-empty word", c.Name)
			}
			qualified := strings.TrimSpace(parent + " " + c.Name)
			if commands[qualified] {
				v.errorf(p+".name", "duplicate command %q", qualified)
			}
			commands[qualified] = true
			own := c.Cog
			if own == "" {
				own = cog
			}
			if own != "" && !cogs[own] {
				v.errorf(p+".cog", "unknown cog %q", own)
			}
			v.requires(p+".requires", c.Requires)
			walk(p+".subcommands", qualified, own, c.Subcommands)
		}
	}
	walk("commands", "", "", s.Commands)

	for i, h := range s.PermissionHooks {
		path := fmt.Sprintf("permission_hooks[%d]", i)
		if _, err := parseHookResult(h.Result); err != nil {
			v.errorf(path+".result", "%v", err)
		}
		for _, target := range h.Commands {
			if !commands[target] && !cogs[target] {
				v.warnf(path+".commands", "unknown command or cog %q", target)
			}
		}
	}

	guildIDs := map[int64]bool{}
	for i, g := range s.Guilds {
		path := fmt.Sprintf("guilds[%d]", i)
		if guildIDs[g.ID] {
			v.errorf(path+".id", "duplicate guild ID %d", g.ID)
		}
		guildIDs[g.ID] = true
		s.validateGuild(v, path, g, commands, cogs)
	}

	return v.problems
}

func (s *Snapshot) validateGuild(v *validator, path string, g GuildConfig, commands, cogs map[string]bool) {
	roles := map[int64]bool{}
	for j, r := range g.Roles {
		roles[r.ID] = true
		v.perms(fmt.Sprintf("%s.roles[%d].permissions", path, j), r.Permissions)
	}
	categories := map[int64]bool{}
	for _, c := range g.Categories {
		categories[c.ID] = true
	}
	for j, c := range g.Channels {
		p := fmt.Sprintf("%s.channels[%d]", path, j)
		if c.Category != 0 && !categories[c.Category] {
			v.errorf(p+".category", "unknown category %d", c.Category)
		}
		for k, o := range c.Overwrites {
			v.perms(fmt.Sprintf("%s.overwrites[%d].allow", p, k), o.Allow)
			v.perms(fmt.Sprintf("%s.overwrites[%d].deny", p, k), o.Deny)
		}
	}

	hasBot := false
	for j, m := range g.Members {
		if m.ID == s.Bot.ID {
			hasBot = true
		}
		for _, r := range m.Roles {
			if !roles[r] {
				v.errorf(fmt.Sprintf("%s.members[%d].roles", path, j), "unknown role %d", r)
			}
		}
	}
	if !hasBot {
		v.errorf(path+".members", "bot user %d is not a member of guild %d", s.Bot.ID, g.ID)
	}

	for _, name := range g.DisabledCommands {
		if !commands[name] {
			v.warnf(path+".disabled_commands", "unknown command %q", name)
		}
	}
	for _, name := range g.DisabledCogs {
		if !cogs[name] {
			v.warnf(path+".disabled_cogs", "unknown cog %q", name)
		}
	}
	for j, r := range g.Rules {
		if !commands[r.Target] && !cogs[r.Target] {
			v.warnf(fmt.Sprintf("%s.rules[%d].target", path, j), "unknown command or cog %q", r.Target)
		}
	}
}
