// Package snapshot implements the host authorization API over a static
// description of a bot deployment loaded from YAML or TOML.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// CheckConfig is a named predicate with a fixed outcome. A failing check with
// a message raises it; without one it simply returns false.
type CheckConfig struct {
	Name    string `yaml:"name" toml:"name"`
	Fail    bool   `yaml:"fail" toml:"fail"`
	Message string `yaml:"message" toml:"message"`
}

// HookConfig is a permission hook installed by a cog.
// Result is allow, deny or unset. Commands restricts it to the listed
// qualified command names or cog names; empty applies everywhere.
type HookConfig struct {
	Name     string   `yaml:"name" toml:"name"`
	Result   string   `yaml:"result" toml:"result"`
	Commands []string `yaml:"commands" toml:"commands"`
}

// RequiresConfig mirrors the requirement gate of a cog or command.
type RequiresConfig struct {
	Privilege       string   `yaml:"privilege" toml:"privilege"`
	BotPermissions  []string `yaml:"bot_permissions" toml:"bot_permissions"`
	UserPermissions []string `yaml:"user_permissions" toml:"user_permissions"`
}

// CogConfig declares a cog.
type CogConfig struct {
	Name     string         `yaml:"name" toml:"name"`
	Check    *CheckConfig   `yaml:"check" toml:"check"`
	Requires RequiresConfig `yaml:"requires" toml:"requires"`
}

// CommandConfig declares a command and its subcommands. Subcommands inherit
// the parent's cog when they don't name one.
type CommandConfig struct {
	Name        string          `yaml:"name" toml:"name"`
	Cog         string          `yaml:"cog" toml:"cog"`
	Disabled    bool            `yaml:"disabled" toml:"disabled"`
	Checks      []CheckConfig   `yaml:"checks" toml:"checks"`
	Requires    RequiresConfig  `yaml:"requires" toml:"requires"`
	Subcommands []CommandConfig `yaml:"subcommands" toml:"subcommands"`
}

// RoleConfig declares a guild role. A role whose ID equals the guild ID is @everyone.
type RoleConfig struct {
	ID          int64    `yaml:"id" toml:"id"`
	Name        string   `yaml:"name" toml:"name"`
	Permissions []string `yaml:"permissions" toml:"permissions"`
}

// CategoryConfig declares a channel category.
type CategoryConfig struct {
	ID      int64  `yaml:"id" toml:"id"`
	Name    string `yaml:"name" toml:"name"`
	Ignored bool   `yaml:"ignored" toml:"ignored"`
}

// OverwriteConfig is a channel permission overwrite for a role or member ID.
type OverwriteConfig struct {
	ID    int64    `yaml:"id" toml:"id"`
	Allow []string `yaml:"allow" toml:"allow"`
	Deny  []string `yaml:"deny" toml:"deny"`
}

// ChannelConfig declares a text channel.
type ChannelConfig struct {
	ID         int64             `yaml:"id" toml:"id"`
	Name       string            `yaml:"name" toml:"name"`
	Category   int64             `yaml:"category" toml:"category"`
	Ignored    bool              `yaml:"ignored" toml:"ignored"`
	Overwrites []OverwriteConfig `yaml:"overwrites" toml:"overwrites"`
}

// MemberConfig declares a guild member. The bot itself must be listed.
type MemberConfig struct {
	ID    int64   `yaml:"id" toml:"id"`
	Name  string  `yaml:"name" toml:"name"`
	Bot   bool    `yaml:"bot" toml:"bot"`
	Roles []int64 `yaml:"roles" toml:"roles"`
}

// RuleConfig is a per-guild allow/deny rule on a command or cog for member
// or role IDs. Deny wins over allow.
type RuleConfig struct {
	Target string  `yaml:"target" toml:"target"`
	Allow  []int64 `yaml:"allow" toml:"allow"`
	Deny   []int64 `yaml:"deny" toml:"deny"`
}

// GuildConfig declares a guild and everything scoped to it.
type GuildConfig struct {
	ID               int64            `yaml:"id" toml:"id"`
	Name             string           `yaml:"name" toml:"name"`
	OwnerID          int64            `yaml:"owner_id" toml:"owner_id"`
	Ignored          bool             `yaml:"ignored" toml:"ignored"`
	AdminRoles       []int64          `yaml:"admin_roles" toml:"admin_roles"`
	ModRoles         []int64          `yaml:"mod_roles" toml:"mod_roles"`
	Roles            []RoleConfig     `yaml:"roles" toml:"roles"`
	Categories       []CategoryConfig `yaml:"categories" toml:"categories"`
	Channels         []ChannelConfig  `yaml:"channels" toml:"channels"`
	Members          []MemberConfig   `yaml:"members" toml:"members"`
	LocalAllowlist   []int64          `yaml:"local_allowlist" toml:"local_allowlist"`
	LocalBlocklist   []int64          `yaml:"local_blocklist" toml:"local_blocklist"`
	DisabledCommands []string         `yaml:"disabled_commands" toml:"disabled_commands"`
	DisabledCogs     []string         `yaml:"disabled_cogs" toml:"disabled_cogs"`
	Rules            []RuleConfig     `yaml:"rules" toml:"rules"`
}

// BotConfig identifies the bot user.
type BotConfig struct {
	ID   int64  `yaml:"id" toml:"id"`
	Name string `yaml:"name" toml:"name"`
}

// Snapshot is the full description of a bot deployment.
type Snapshot struct {
	Version         int             `yaml:"version" toml:"version"`
	Prefix          string          `yaml:"prefix" toml:"prefix"`
	Bot             BotConfig       `yaml:"bot" toml:"bot"`
	Owners          []int64         `yaml:"owners" toml:"owners"`
	GlobalAllowlist []int64         `yaml:"global_allowlist" toml:"global_allowlist"`
	GlobalBlocklist []int64         `yaml:"global_blocklist" toml:"global_blocklist"`
	GlobalChecks    []CheckConfig   `yaml:"global_checks" toml:"global_checks"`
	CallOnceChecks  []CheckConfig   `yaml:"call_once_checks" toml:"call_once_checks"`
	PermissionHooks []HookConfig    `yaml:"permission_hooks" toml:"permission_hooks"`
	Cogs            []CogConfig     `yaml:"cogs" toml:"cogs"`
	Commands        []CommandConfig `yaml:"commands" toml:"commands"`
	Guilds          []GuildConfig   `yaml:"guilds" toml:"guilds"`
}

// FormatVersion is the newest snapshot layout this build understands. Files
// without a version are read as version 1.
const FormatVersion = 1

// DefaultPrefix is used when a snapshot does not set one.
const DefaultPrefix = "[p]"

// DefaultPath is ~/.cmddoctor/snapshot.yaml, or "" when there is no home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cmddoctor", "snapshot.yaml")
}

// Load reads a snapshot file. The format follows the extension: .toml is
// parsed as TOML, anything else as YAML. Empty path falls back to DefaultPath.
func Load(path string) (*Snapshot, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return nil, fmt.Errorf("no snapshot path given and home directory is unknown")
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snap, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".toml"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Parse decodes snapshot bytes, YAML unless isTOML is set.
func Parse(data []byte, isTOML bool) (*Snapshot, error) {
	snap := &Snapshot{Prefix: DefaultPrefix}
	if isTOML {
		if err := toml.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot: %w", err)
		}
	} else if err := yaml.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Prefix == "" {
		snap.Prefix = DefaultPrefix
	}
	return snap, nil
}
