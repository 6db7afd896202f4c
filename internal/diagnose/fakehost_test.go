package diagnose

import (
	"context"

	"github.com/ppiankov/cmddoctor/internal/host"
)

// fakeHost answers every query with a canned response. Nil hooks pass.
type fakeHost struct {
	contextCalls int
	contextErr   error
	resolved     *host.Command

	callOnce      func() (bool, error)
	global        func() (bool, error)
	botPerms      host.Permissions
	ignored       bool
	lists         func(member *host.Member, whoID, guildID int64) (bool, error)
	commandCanRun func(inv host.Invocation, cmd *host.Command, opts host.CanRunOptions) (host.Verdict, error)
	baseCanRun    func(cmd *host.Command) (bool, error)
	cogCheck      func(cog *host.Cog) (bool, error)
	commandChecks func(cmd *host.Command) (bool, error)
	verify        func(inv host.Invocation, target host.Requirer) (host.Verdict, error)
	hooks         host.HookResult
}

func newFakeHost() *fakeHost {
	return &fakeHost{botPerms: host.Permissions{"view_channel", "send_messages"}}
}

func (f *fakeHost) GetContext(ctx context.Context, msg host.Message) (host.Invocation, error) {
	f.contextCalls++
	if f.contextErr != nil {
		return host.Invocation{}, f.contextErr
	}
	cmd := f.resolved
	if cmd == nil {
		cmd = fixtureSub
	}
	return host.Invocation{
		Message:     msg,
		Prefix:      "!",
		CleanPrefix: "!",
		Command:     cmd,
	}, nil
}

func (f *fakeHost) CanRun(ctx context.Context, inv host.Invocation, callOnce bool) (bool, error) {
	if callOnce && f.callOnce != nil {
		return f.callOnce()
	}
	if !callOnce && f.global != nil {
		return f.global()
	}
	return true, nil
}

func (f *fakeHost) BotPermissions(ctx context.Context, channel *host.Channel) (host.Permissions, error) {
	return f.botPerms, nil
}

func (f *fakeHost) IgnoredChannelOrGuild(ctx context.Context, msg host.Message) (bool, error) {
	return f.ignored, nil
}

func (f *fakeHost) AllowedByLists(ctx context.Context, member *host.Member, whoID, guildID int64) (bool, error) {
	if f.lists != nil {
		return f.lists(member, whoID, guildID)
	}
	return true, nil
}

func (f *fakeHost) CommandCanRun(ctx context.Context, inv host.Invocation, cmd *host.Command, opts host.CanRunOptions) (host.Verdict, error) {
	if f.commandCanRun != nil {
		return f.commandCanRun(inv, cmd, opts)
	}
	return host.Verdict{Allowed: true, State: inv.PermState}, nil
}

func (f *fakeHost) BaseCanRun(ctx context.Context, inv host.Invocation, cmd *host.Command) (bool, error) {
	if f.baseCanRun != nil {
		return f.baseCanRun(cmd)
	}
	return true, nil
}

func (f *fakeHost) CogCheck(ctx context.Context, inv host.Invocation, cog *host.Cog) (bool, error) {
	if f.cogCheck != nil {
		return f.cogCheck(cog)
	}
	return true, nil
}

func (f *fakeHost) CommandChecks(ctx context.Context, inv host.Invocation, cmd *host.Command) (bool, error) {
	if f.commandChecks != nil {
		return f.commandChecks(cmd)
	}
	return true, nil
}

func (f *fakeHost) Verify(ctx context.Context, inv host.Invocation, target host.Requirer) (host.Verdict, error) {
	if f.verify != nil {
		return f.verify(inv, target)
	}
	return host.Verdict{Allowed: true, State: inv.PermState}, nil
}

func (f *fakeHost) VerifyPermissionHooks(ctx context.Context, inv host.Invocation) (host.HookResult, error) {
	return f.hooks, nil
}

var (
	fixtureGuild   = &host.Guild{ID: 10, Name: "Test Server", OwnerID: 1}
	fixtureChannel = &host.Channel{ID: 20, Name: "general", Guild: fixtureGuild}
	fixtureCog     = &host.Cog{Name: "Audio", HasCheck: true}
	fixtureRoot    = &host.Command{Name: "playlist", Cog: fixtureCog, Enabled: true}
	fixtureSub     = &host.Command{Name: "start", Parent: fixtureRoot, Cog: fixtureCog, Enabled: true, Checks: []string{"dj_role"}}
)

func fixtureAuthor() *host.Member {
	return &host.Member{ID: 300, Name: "alice", Roles: []host.Role{{ID: 40, Name: "regular"}}}
}

func fixtureOriginal() host.Invocation {
	return host.Invocation{
		Message:     host.Message{ID: 1, Author: &host.Member{ID: 1, Name: "owner"}, Channel: fixtureChannel, Content: "!diagnoseissues"},
		Prefix:      "!",
		CleanPrefix: "!",
	}
}

func newTestDiagnoser(h host.Host, author *host.Member, cmd *host.Command) *Diagnoser {
	return New(h, fixtureOriginal(), fixtureChannel, author, cmd, Options{})
}

// denyCommandCanRun makes the full decision fail for every command in failing.
func denyCommandCanRun(failing ...*host.Command) func(host.Invocation, *host.Command, host.CanRunOptions) (host.Verdict, error) {
	return func(inv host.Invocation, cmd *host.Command, opts host.CanRunOptions) (host.Verdict, error) {
		if opts.CheckAllParents {
			return host.Verdict{}, nil
		}
		for _, f := range failing {
			if f == cmd {
				return host.Verdict{State: inv.PermState}, nil
			}
		}
		return host.Verdict{Allowed: true, State: inv.PermState}, nil
	}
}
