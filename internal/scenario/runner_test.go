package scenario

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

const testSnapshot = `
prefix: "!"
bot: {id: 1, name: cmdbot}
owners: [2]
global_blocklist: [66]
commands:
  - name: ping
  - name: shutdown
    requires: {privilege: bot_owner}
guilds:
  - id: 10
    name: Test Server
    owner_id: 5
    roles:
      - {id: 10, name: "@everyone", permissions: [view_channel, send_messages]}
    channels:
      - {id: 20, name: general}
      - id: 21
        name: readonly
        overwrites:
          - {id: 10, deny: [send_messages]}
    members:
      - {id: 1, name: cmdbot, bot: true}
      - {id: 2, name: owner}
      - {id: 300, name: alice}
      - {id: 66, name: spammer}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testHost(t *testing.T) *snapshot.Host {
	t.Helper()
	snap, err := snapshot.Parse([]byte(testSnapshot), false)
	if err != nil {
		t.Fatal(err)
	}
	h, err := snapshot.New(snap)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func request(channel, member, command string) snapshot.Request {
	return snapshot.Request{Channel: channel, Member: member, Command: command}
}

func TestAllCasesPass(t *testing.T) {
	s := &Scenario{
		Name: "basic",
		Cases: []Case{
			{Request: request("general", "alice", "ping"), Expect: "pass"},
			{Request: request("general", "owner", "shutdown"), Expect: "pass"},
			{Request: request("general", "alice", "shutdown"), Expect: "fail", Label: "bot owner only"},
			{Request: request("general", "spammer", "ping"), Expect: "fail", Resolution: "`!blocklist list`"},
			{Request: request("general", "alice", "dance"), Expect: "refuse", Resolution: "Command not found!"},
			{Request: request("readonly", "alice", "ping"), Expect: "REFUSE"},
		},
	}

	result, err := Run(context.Background(), s, testHost(t))
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d; cases: %+v", result.Failed, result.Cases)
	}
	if result.Passed != len(s.Cases) {
		t.Errorf("expected %d passed, got %d", len(s.Cases), result.Passed)
	}
	for i, c := range result.Cases {
		if c.Index != i+1 {
			t.Errorf("case %d has index %d, order not preserved", i, c.Index)
		}
	}
}

func TestFailedAssertionDetected(t *testing.T) {
	s := &Scenario{
		Name: "wrong expectations",
		Cases: []Case{
			{Request: request("general", "alice", "shutdown"), Expect: "pass"},
			{Request: request("general", "alice", "shutdown"), Expect: "fail", Label: "blocklist"},
			{Request: request("general", "spammer", "ping"), Expect: "fail", Resolution: "enable global"},
			{Request: request("nowhere", "alice", "ping"), Expect: "pass"},
		},
	}

	result, err := Run(context.Background(), s, testHost(t))
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 4 || result.Passed != 0 {
		t.Fatalf("expected 4 failures, got %+v", result.Cases)
	}

	c := result.Cases[0]
	if c.Actual != "fail" || c.Step != "Ensure that the command is not bot owner only" {
		t.Errorf("case 1: got actual=%s step=%q", c.Actual, c.Step)
	}
	if !strings.Contains(result.Cases[1].Reason, `does not mention "blocklist"`) {
		t.Errorf("case 2 reason: %q", result.Cases[1].Reason)
	}
	if !strings.Contains(result.Cases[2].Reason, "resolution does not mention") {
		t.Errorf("case 3 reason: %q", result.Cases[2].Reason)
	}
	if result.Cases[3].Actual != "error" {
		t.Errorf("case 4: unknown channel should be an error, got %s", result.Cases[3].Actual)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scenario{Cases: []Case{{Request: request("general", "alice", "ping"), Expect: "pass"}}}
	if _, err := Run(ctx, s, testHost(t)); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestEmptyCasesList(t *testing.T) {
	result, err := Run(context.Background(), &Scenario{Name: "empty"}, testHost(t))
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 0 || result.Failed != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestLoadAndRunFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "snapshot.yaml", testSnapshot)
	path := writeFile(t, dir, "test.yaml", `
name: "file test"
snapshot: snapshot.yaml
cases:
  - {channel: general, member: alice, command: ping, expect: pass}
  - {channel: "#general", member: "300", command: shutdown, expect: fail}
`)

	result, err := LoadAndRun(context.Background(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %+v", result.Cases)
	}
	if result.File != path {
		t.Errorf("expected file path set, got %q", result.File)
	}
	if result.Name != "file test" {
		t.Errorf("name: got %q", result.Name)
	}
}

func TestSnapshotFlagOverridesScenario(t *testing.T) {
	dir := t.TempDir()
	override := writeFile(t, dir, "override.yaml", testSnapshot)
	path := writeFile(t, dir, "test.yaml", `
snapshot: missing.yaml
cases:
  - {channel: general, member: alice, command: ping, expect: pass}
`)

	result, err := LoadAndRun(context.Background(), path, override)
	if err != nil {
		t.Fatal(err)
	}
	if result.Name != "test" {
		t.Errorf("name should default to the file name, got %q", result.Name)
	}
	if result.Passed != 1 {
		t.Errorf("expected 1 passed, got %+v", result.Cases)
	}
}

func TestInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", ":::not yaml\x00")
	writeFile(t, dir, "expect.yaml", `
cases:
  - {channel: general, member: alice, command: ping, expect: maybe}
`)

	if _, err := LoadAndRun(context.Background(), filepath.Join(dir, "bad.yaml"), ""); err == nil {
		t.Error("expected error for invalid YAML")
	}
	_, err := Load(filepath.Join(dir, "expect.yaml"))
	if err == nil || !strings.Contains(err.Error(), "expect must be pass, fail or refuse") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestFormatText(t *testing.T) {
	results := []*RunResult{
		{Name: "ok", Total: 1, Passed: 1, Cases: []CaseResult{{Index: 1, Passed: true}}},
		{Name: "broken", Total: 2, Passed: 1, Failed: 1, Cases: []CaseResult{
			{Index: 1, Passed: true},
			{Index: 2, Channel: "general", Member: "alice", Command: "shutdown", Expected: "pass", Actual: "fail",
				Step: "Ensure that the command is not bot owner only", Reason: "This cannot be fixed"},
		}},
	}

	out := FormatText(results)
	for _, want := range []string{
		"Checking 2 scenario files...",
		"  PASS  ok (1/1)",
		"  FAIL  broken (1/2)",
		"case 2: alice in #general: shutdown",
		"expected pass, got fail",
		"step: Ensure that the command is not bot owner only",
		"2 of 3 cases passed. 1 of 2 scenarios failed.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON([]*RunResult{{Name: "x", Total: 1, Passed: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"name": "x"`) {
		t.Errorf("unexpected JSON: %s", out)
	}
}
