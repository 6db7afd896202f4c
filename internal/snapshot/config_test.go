package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadYAML(t *testing.T) {
	snap, err := Load("testdata/basic.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Version != FormatVersion {
		t.Errorf("expected format version %d, got %d", FormatVersion, snap.Version)
	}
	if snap.Prefix != "!" {
		t.Errorf("prefix = %q, want !", snap.Prefix)
	}
	if snap.Bot.ID != 1 {
		t.Errorf("bot id = %d, want 1", snap.Bot.ID)
	}
	if len(snap.Guilds) != 1 || len(snap.Guilds[0].Members) != 8 {
		t.Fatalf("unexpected guild layout: %+v", snap.Guilds)
	}
	playlist := snap.Commands[1]
	if playlist.Name != "playlist" || len(playlist.Subcommands) != 1 {
		t.Fatalf("unexpected command tree: %+v", playlist)
	}
	if got := playlist.Subcommands[0].Checks[0].Name; got != "dj_role" {
		t.Errorf("subcommand check = %q", got)
	}
}

func TestLoadTOML(t *testing.T) {
	snap, err := Load("testdata/basic.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Prefix != "?" {
		t.Errorf("prefix = %q, want ?", snap.Prefix)
	}
	if len(snap.Guilds) != 1 || snap.Guilds[0].OwnerID != 5 {
		t.Fatalf("unexpected guilds: %+v", snap.Guilds)
	}
	if got := snap.Guilds[0].Roles[0].Permissions; len(got) != 1 || got[0] != "send_messages" {
		t.Errorf("role permissions = %v", got)
	}
	if problems := snap.Validate(); HasErrors(problems) {
		t.Errorf("unexpected problems: %v", problems)
	}
}

func TestParseDefaultsPrefix(t *testing.T) {
	snap, err := Parse([]byte("bot:\n  id: 1\n"), false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if snap.Prefix != DefaultPrefix {
		t.Errorf("prefix = %q, want %q", snap.Prefix, DefaultPrefix)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read snapshot") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("owners: [1, 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestValidateBasicIsClean(t *testing.T) {
	snap, err := Load("testdata/basic.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if problems := snap.Validate(); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}

func TestValidateReportsEverything(t *testing.T) {
	snap := &Snapshot{
		Version: FormatVersion + 1,
		Cogs:    []CogConfig{{Name: "Audio"}, {Name: "Audio"}},
		Commands: []CommandConfig{
			{Name: "two words"},
			{Name: "play", Cog: "Music", Requires: RequiresConfig{Privilege: "king"}},
		},
		PermissionHooks: []HookConfig{{Name: "h", Result: "maybe", Commands: []string{"ghost"}}},
		Guilds: []GuildConfig{{
			ID:       10,
			Roles:    []RoleConfig{{ID: 10, Permissions: []string{"fly"}}},
			Channels: []ChannelConfig{{ID: 20, Category: 99}},
			Members:  []MemberConfig{{ID: 300, Roles: []int64{77}}},
		}},
	}

	problems := snap.Validate()
	if !HasErrors(problems) {
		t.Fatal("expected errors")
	}
	want := []string{
		"version",
		"bot.id",
		"owners",
		"cogs[1].name",
		"commands[0].name",
		"commands[1].cog",
		"commands[1].requires.privilege",
		"permission_hooks[0].result",
		"permission_hooks[0].commands",
		"guilds[0].roles[0].permissions",
		"guilds[0].channels[0].category",
		"guilds[0].members[0].roles",
		"guilds[0].members",
	}
	paths := map[string]bool{}
	for _, p := range problems {
		paths[p.Path] = true
	}
	for _, w := range want {
		if !paths[w] {
			t.Errorf("missing problem at %s (got %v)", w, problems)
		}
	}
}

func TestNewRejectsInvalidSnapshot(t *testing.T) {
	_, err := New(&Snapshot{Prefix: "!"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "bot user ID is required") {
		t.Errorf("unexpected error: %v", err)
	}
}
