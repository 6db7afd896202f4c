package host

import (
	"fmt"
	"strings"
)

// PrivilegeLevel is the coarse privilege gate a cog or command may require.
type PrivilegeLevel int

const (
	PrivilegeNone PrivilegeLevel = iota
	PrivilegeMod
	PrivilegeAdmin
	PrivilegeGuildOwner
	PrivilegeBotOwner
)

var privilegeNames = map[PrivilegeLevel]string{
	PrivilegeNone:       "none",
	PrivilegeMod:        "mod",
	PrivilegeAdmin:      "admin",
	PrivilegeGuildOwner: "guild_owner",
	PrivilegeBotOwner:   "bot_owner",
}

func (p PrivilegeLevel) String() string {
	if s, ok := privilegeNames[p]; ok {
		return s
	}
	return fmt.Sprintf("privilege(%d)", int(p))
}

// ParsePrivilegeLevel maps a config string to a PrivilegeLevel.
// Empty input is PrivilegeNone.
func ParsePrivilegeLevel(s string) (PrivilegeLevel, error) {
	if s == "" {
		return PrivilegeNone, nil
	}
	for level, name := range privilegeNames {
		if strings.EqualFold(name, s) {
			return level, nil
		}
	}
	return PrivilegeNone, fmt.Errorf("unknown privilege level %q", s)
}

// PermState tracks how a permission rule resolved while walking a command chain.
// A parent's explicit allow carries over to subcommands without their own rule.
type PermState int

const (
	PermNormal PermState = iota
	PermActiveAllow
	PermActiveDeny
	PermPassiveAllow
	PermAllowedByHook
	PermDeniedByHook
)

func (s PermState) String() string {
	switch s {
	case PermNormal:
		return "normal"
	case PermActiveAllow:
		return "active_allow"
	case PermActiveDeny:
		return "active_deny"
	case PermPassiveAllow:
		return "passive_allow"
	case PermAllowedByHook:
		return "allowed_by_hook"
	case PermDeniedByHook:
		return "denied_by_hook"
	default:
		return fmt.Sprintf("perm_state(%d)", int(s))
	}
}

// HookResult is the tri-state outcome of the permission hooks.
type HookResult int

const (
	HookUnset HookResult = iota
	HookAllow
	HookDeny
)

func (h HookResult) String() string {
	switch h {
	case HookAllow:
		return "allow"
	case HookDeny:
		return "deny"
	default:
		return "unset"
	}
}

// Guild is a server the bot is a member of.
type Guild struct {
	ID      int64
	Name    string
	OwnerID int64
}

// Category groups channels within a guild.
type Category struct {
	ID   int64
	Name string
}

// Mention returns the chat mention markup for the category.
func (c *Category) Mention() string {
	return fmt.Sprintf("<#%d>", c.ID)
}

// Channel is a text channel within a guild.
type Channel struct {
	ID       int64
	Name     string
	Guild    *Guild
	Category *Category
}

// Mention returns the chat mention markup for the channel.
func (c *Channel) Mention() string {
	return fmt.Sprintf("<#%d>", c.ID)
}

// Role is a guild role.
type Role struct {
	ID   int64
	Name string
}

// Member is a user as seen inside one guild.
type Member struct {
	ID    int64
	Name  string
	Bot   bool
	Roles []Role
}

func (m *Member) String() string {
	return m.Name
}

// RoleIDs returns the IDs of the member's roles in order.
func (m *Member) RoleIDs() []int64 {
	ids := make([]int64, 0, len(m.Roles))
	for _, r := range m.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// Requirements is the fine-grained gate attached to a cog or a command.
type Requirements struct {
	Privilege       PrivilegeLevel
	BotPermissions  Permissions
	UserPermissions Permissions
}

// Requirer is implemented by the things that carry Requirements (cogs and commands).
type Requirer interface {
	QualifiedName() string
	Requires() Requirements
}

// Cog is a named group of commands sharing a cog-level check and requirements.
type Cog struct {
	Name         string
	HasCheck     bool
	Requirements Requirements
}

func (c *Cog) QualifiedName() string  { return c.Name }
func (c *Cog) Requires() Requirements { return c.Requirements }

// Command is a node in the command tree.
type Command struct {
	Name         string
	Parent       *Command
	Cog          *Cog
	Enabled      bool
	Checks       []string
	Requirements Requirements
}

func (c *Command) Requires() Requirements { return c.Requirements }

// QualifiedName is the space-joined path from the root command.
func (c *Command) QualifiedName() string {
	if c.Parent == nil {
		return c.Name
	}
	return c.Parent.QualifiedName() + " " + c.Name
}

func (c *Command) String() string {
	return c.QualifiedName()
}

// Parents returns the ancestors of the command, nearest first.
func (c *Command) Parents() []*Command {
	var out []*Command
	for p := c.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Chain returns the command path from the root ancestor down to c.
func (c *Command) Chain() []*Command {
	parents := c.Parents()
	chain := make([]*Command, 0, len(parents)+1)
	for i := len(parents) - 1; i >= 0; i-- {
		chain = append(chain, parents[i])
	}
	return append(chain, c)
}

// Root returns the outermost ancestor, or c itself when it has no parent.
func (c *Command) Root() *Command {
	root := c
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

// Message is the subset of a chat message the host needs to resolve a context.
type Message struct {
	ID      int64
	Author  *Member
	Channel *Channel
	Content string
}

// Invocation is an execution context resolved by the host from a message.
// It is a value: host calls that advance the permission state return the new
// state instead of mutating the caller's copy.
type Invocation struct {
	Message     Message
	Prefix      string
	CleanPrefix string
	Command     *Command
	PermState   PermState
}

// Guild is a shortcut for the guild of the invocation's channel.
func (inv Invocation) Guild() *Guild {
	if inv.Message.Channel == nil {
		return nil
	}
	return inv.Message.Channel.Guild
}

// Cog is the cog of the invocation's command, if any.
func (inv Invocation) Cog() *Cog {
	if inv.Command == nil {
		return nil
	}
	return inv.Command.Cog
}

// WithCommand returns a copy of the invocation targeting cmd.
func (inv Invocation) WithCommand(cmd *Command) Invocation {
	inv.Command = cmd
	return inv
}

// WithPermState returns a copy of the invocation carrying state.
func (inv Invocation) WithPermState(state PermState) Invocation {
	inv.PermState = state
	return inv
}
