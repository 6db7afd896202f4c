package host

import (
	"fmt"
	"slices"
)

// Known lists the channel and guild permission flags understood by the host,
// in the order the platform documents them.
var Known = []string{
	"create_instant_invite",
	"kick_members",
	"ban_members",
	"administrator",
	"manage_channels",
	"manage_guild",
	"add_reactions",
	"view_audit_log",
	"priority_speaker",
	"stream",
	"view_channel",
	"send_messages",
	"send_tts_messages",
	"manage_messages",
	"embed_links",
	"attach_files",
	"read_message_history",
	"mention_everyone",
	"use_external_emojis",
	"view_guild_insights",
	"connect",
	"speak",
	"mute_members",
	"deafen_members",
	"move_members",
	"use_voice_activation",
	"change_nickname",
	"manage_nicknames",
	"manage_roles",
	"manage_webhooks",
	"manage_emojis",
	"use_application_commands",
	"manage_threads",
	"send_messages_in_threads",
	"moderate_members",
}

// ChannelScoped lists the flags that only make sense within a channel. A
// member who cannot view a channel holds none of them there.
var ChannelScoped = Permissions{
	"create_instant_invite",
	"manage_channels",
	"add_reactions",
	"priority_speaker",
	"stream",
	"view_channel",
	"send_messages",
	"send_tts_messages",
	"manage_messages",
	"embed_links",
	"attach_files",
	"read_message_history",
	"mention_everyone",
	"use_external_emojis",
	"connect",
	"speak",
	"mute_members",
	"deafen_members",
	"move_members",
	"use_voice_activation",
	"manage_roles",
	"manage_webhooks",
	"use_application_commands",
	"manage_threads",
	"send_messages_in_threads",
}

// sendScoped lists the flags that depend on send_messages in a text channel.
var sendScoped = Permissions{
	"send_tts_messages",
	"mention_everyone",
	"embed_links",
	"attach_files",
}

// Effective applies the platform's implicit channel rules: without
// view_channel no channel permission is held, and without send_messages none
// of the flags that post content are.
func (p Permissions) Effective() Permissions {
	if p.Has("administrator") {
		return p
	}
	if !p.Has("view_channel") {
		return p.Without(ChannelScoped)
	}
	if !p.Has("send_messages") {
		return p.Without(sendScoped)
	}
	return p
}

// Permissions is a set of permission flag names. Order is preserved for display.
type Permissions []string

// ParsePermissions validates names against Known and drops duplicates.
func ParsePermissions(names []string) (Permissions, error) {
	var out Permissions
	for _, n := range names {
		if !slices.Contains(Known, n) {
			return nil, fmt.Errorf("unknown permission %q", n)
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Has reports whether the set grants name. Administrator grants everything.
func (p Permissions) Has(name string) bool {
	return slices.Contains(p, "administrator") || slices.Contains(p, name)
}

// Missing returns the entries of required not granted by p, in required order.
func (p Permissions) Missing(required Permissions) Permissions {
	var out Permissions
	for _, r := range required {
		if !p.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Union returns p with the entries of other appended.
func (p Permissions) Union(other Permissions) Permissions {
	out := slices.Clone(p)
	for _, n := range other {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// Without returns p minus the entries of other.
func (p Permissions) Without(other Permissions) Permissions {
	var out Permissions
	for _, n := range p {
		if !slices.Contains(other, n) {
			out = append(out, n)
		}
	}
	return out
}
