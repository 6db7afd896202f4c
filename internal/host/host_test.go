package host

import (
	"errors"
	"fmt"
	"testing"
)

func TestCommandTree(t *testing.T) {
	root := &Command{Name: "playlist"}
	mid := &Command{Name: "queue", Parent: root}
	leaf := &Command{Name: "clear", Parent: mid}

	if got := leaf.QualifiedName(); got != "playlist queue clear" {
		t.Errorf("QualifiedName = %q", got)
	}
	if got := leaf.Parents(); len(got) != 2 || got[0] != mid || got[1] != root {
		t.Errorf("Parents = %v, want nearest first", got)
	}
	if got := leaf.Chain(); len(got) != 3 || got[0] != root || got[2] != leaf {
		t.Errorf("Chain = %v, want root first", got)
	}
	if leaf.Root() != root || root.Root() != root {
		t.Error("Root should return the outermost ancestor")
	}
}

func TestParsePrivilegeLevel(t *testing.T) {
	for in, want := range map[string]PrivilegeLevel{
		"":          PrivilegeNone,
		"mod":       PrivilegeMod,
		"ADMIN":     PrivilegeAdmin,
		"bot_owner": PrivilegeBotOwner,
	} {
		got, err := ParsePrivilegeLevel(in)
		if err != nil || got != want {
			t.Errorf("ParsePrivilegeLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePrivilegeLevel("root"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestPermissions(t *testing.T) {
	p, err := ParsePermissions([]string{"send_messages", "embed_links", "send_messages"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 2 {
		t.Errorf("duplicates not dropped: %v", p)
	}
	if _, err := ParsePermissions([]string{"fly"}); err == nil {
		t.Error("expected error for unknown permission")
	}

	missing := p.Missing(Permissions{"connect", "send_messages", "speak"})
	if len(missing) != 2 || missing[0] != "connect" || missing[1] != "speak" {
		t.Errorf("Missing = %v", missing)
	}
	if m := (Permissions{"administrator"}).Missing(Permissions{"connect"}); len(m) != 0 {
		t.Errorf("administrator should grant everything, missing %v", m)
	}

	u := p.Union(Permissions{"connect"}).Without(Permissions{"embed_links"})
	if !u.Has("connect") || u.Has("embed_links") || !u.Has("send_messages") {
		t.Errorf("Union/Without = %v", u)
	}
}

func TestCommandErrors(t *testing.T) {
	missing := &BotMissingPermissionsError{Missing: Permissions{"connect"}}
	wrapped := fmt.Errorf("verify: %w", missing)
	tests := []struct {
		err     error
		command bool
		message string
	}{
		{&CommandError{Message: "Not in a voice channel."}, true, "Not in a voice channel."},
		{&CommandError{}, true, ""},
		{&DisabledCommandError{Name: "ping"}, true, ""},
		{wrapped, true, missing.Error()},
		{errors.New("connection reset"), false, ""},
		{nil, false, ""},
	}
	for _, tt := range tests {
		if got := IsCommandError(tt.err); got != tt.command {
			t.Errorf("IsCommandError(%v) = %v, want %v", tt.err, got, tt.command)
		}
		if got := ErrorMessage(tt.err); got != tt.message {
			t.Errorf("ErrorMessage(%v) = %q, want %q", tt.err, got, tt.message)
		}
	}
}

func TestPermissionsEffective(t *testing.T) {
	tests := []struct {
		name   string
		perms  Permissions
		has    []string
		hasNot []string
	}{
		{"visible channel", Permissions{"view_channel", "send_messages", "embed_links"}, []string{"send_messages", "embed_links"}, nil},
		{"hidden channel", Permissions{"send_messages", "read_message_history", "kick_members"}, []string{"kick_members"}, []string{"send_messages", "read_message_history"}},
		{"read only", Permissions{"view_channel", "embed_links", "add_reactions"}, []string{"view_channel", "add_reactions"}, []string{"embed_links"}},
		{"administrator", Permissions{"administrator"}, []string{"send_messages", "view_channel"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.perms.Effective()
			for _, p := range tt.has {
				if !got.Has(p) {
					t.Errorf("expected %s in %v", p, got)
				}
			}
			for _, p := range tt.hasNot {
				if got.Has(p) {
					t.Errorf("did not expect %s in %v", p, got)
				}
			}
		})
	}
}
