package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/session"
	"github.com/stagehand-sh/stagehand/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output.
// Flags are reset first so values from earlier invocations cannot leak in.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	testutil.ResetCommand(root)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := executeCommand(rootCmd, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\noutput:\n%s", args, err, out)
	}
	return out
}

func wantContains(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(out, part) {
			t.Errorf("output missing %q:\n%s", part, out)
		}
	}
}

// ===== Command tree =====

func TestRootCommandStructure(t *testing.T) {
	if rootCmd.Use != "stagehand" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "stagehand")
	}

	expected := []string{"init", "identity", "audit", "watch", "lock", "session", "scene", "spec"}
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range expected {
		if !names[want] {
			t.Errorf("expected subcommand %q not found", want)
		}
	}
}

// ===== init =====

func TestInitCommand(t *testing.T) {
	root := t.TempDir()
	t.Setenv("STAGEHAND_WORKSPACE_ROOT", root)
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))
	t.Cleanup(viper.Reset)

	out := mustExecute(t, "init")
	wantContains(t, out, "Initialized workspace at", "Machine identity:", "Wrote default config to")

	dataDir := filepath.Join(root, ".stagehand")
	for _, sub := range []string{"specs", "sessions", "audit", "logs"} {
		if _, err := os.Stat(filepath.Join(dataDir, sub)); err != nil {
			t.Errorf("expected %s directory: %v", sub, err)
		}
	}

	cfgFile := filepath.Join(root, "xdg", "stagehand", "config.yaml")
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if !strings.Contains(string(data), "default_timeout_hours") {
		t.Error("generated config missing lock settings")
	}

	out = mustExecute(t, "init")
	wantContains(t, out, "Workspace already initialized at")
}

// ===== lock =====

func TestLockAcquireReleaseFlow(t *testing.T) {
	testutil.SetupWorkspace(t)

	out := mustExecute(t, "lock", "acquire", "billing", "--owner", "alice", "--reason", "payment rework")
	wantContains(t, out, "Acquired lock for billing (owner alice, timeout 4.0h)")

	out = mustExecute(t, "lock", "status", "billing")
	wantContains(t, out, "billing locked by alice", "held by this machine", "payment rework")

	out = mustExecute(t, "lock", "acquire", "billing", "--owner", "alice")
	wantContains(t, out, "Lock for billing already held by this machine (owner alice)")

	out = mustExecute(t, "lock", "release", "billing")
	wantContains(t, out, "Released lock on billing")

	out = mustExecute(t, "lock", "status", "billing")
	wantContains(t, out, "billing is not locked")
}

func TestLockAcquireContention(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	testutil.WriteLockRecord(t, dataDir, "billing", lockfile.Record{
		Owner:     "bob",
		MachineID: "machine-other",
		Hostname:  "otherhost",
	})

	out, err := executeCommand(rootCmd, "lock", "acquire", "billing")
	if err == nil {
		t.Fatal("expected acquire against foreign lock to fail")
	}
	wantContains(t, out, "Spec is already locked", "held by bob on otherhost")
}

func TestLockAcquireReclaimsExpired(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	testutil.WriteLockRecord(t, dataDir, "billing", lockfile.Record{
		Owner:     "bob",
		MachineID: "machine-other",
		Hostname:  "otherhost",
		Timestamp: time.Now().UTC().Add(-5 * time.Hour),
		Timeout:   4,
	})

	out := mustExecute(t, "lock", "acquire", "billing", "--owner", "alice")
	wantContains(t, out, "Acquired lock for billing (owner alice")

	out = mustExecute(t, "audit")
	wantContains(t, out, "lock.stale_cleanup", "billing")
}

func TestLockReleaseForeignNeedsForce(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	testutil.WriteLockRecord(t, dataDir, "billing", lockfile.Record{
		Owner:     "bob",
		MachineID: "machine-other",
		Hostname:  "otherhost",
	})

	out, err := executeCommand(rootCmd, "lock", "release", "billing")
	if err == nil {
		t.Fatal("expected non-forced release of foreign lock to fail")
	}
	wantContains(t, out, "Lock owned by different machine", "use --force to override")

	if codec := lockfile.NewCodec(dataDir); !codec.Exists("billing") {
		t.Error("foreign lock should survive a refused release")
	}
}

func TestLockReleaseForce(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	testutil.WriteLockRecord(t, dataDir, "billing", lockfile.Record{
		Owner:     "bob",
		MachineID: "machine-other",
		Hostname:  "otherhost",
	})

	out := mustExecute(t, "lock", "release", "billing", "--force", "--yes", "--actor", "ops")
	wantContains(t, out, "Force-released lock on billing (was held by bob on otherhost)")

	out = mustExecute(t, "audit")
	wantContains(t, out, "lock.forced_release", "billing", "by ops")
}

func TestLockReleaseForceWithoutConfirmation(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	testutil.WriteLockRecord(t, dataDir, "billing", lockfile.Record{
		Owner:     "bob",
		MachineID: "machine-other",
	})

	// Stdin is not a terminal under go test, so --force without --yes
	// must refuse rather than hang on a prompt.
	_, err := executeCommand(rootCmd, "lock", "release", "billing", "--force")
	if err == nil || !strings.Contains(err.Error(), "rerun with --yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestLockListAndCleanup(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	mustExecute(t, "lock", "acquire", "fresh-spec", "--owner", "alice")
	testutil.WriteLockRecord(t, dataDir, "stale-spec", lockfile.Record{
		Owner:     "bob",
		MachineID: "machine-other",
		Hostname:  "otherhost",
		Timestamp: time.Now().UTC().Add(-6 * time.Hour),
		Timeout:   4,
	})

	out := mustExecute(t, "lock", "list")
	wantContains(t, out, "SPEC", "fresh-spec", "stale-spec", "expired")

	out = mustExecute(t, "lock", "cleanup", "--dry-run")
	wantContains(t, out, "Would remove stale lock on stale-spec",
		"Checked 2 locks; 1 stale, 0 removed.")
	if codec := lockfile.NewCodec(dataDir); !codec.Exists("stale-spec") {
		t.Fatal("dry run must not delete locks")
	}

	out = mustExecute(t, "lock", "cleanup", "--actor", "ops")
	wantContains(t, out, "Removed stale lock on stale-spec",
		"Checked 2 locks; 1 stale, 1 removed.")
	if codec := lockfile.NewCodec(dataDir); codec.Exists("stale-spec") {
		t.Fatal("cleanup should have deleted the stale lock")
	}

	out = mustExecute(t, "lock", "cleanup")
	wantContains(t, out, "Checked 1 locks; none stale.")
}

func TestLockCleanupPattern(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	old := time.Now().UTC().Add(-6 * time.Hour)
	testutil.WriteLockRecord(t, dataDir, "team-a-billing", lockfile.Record{
		Owner: "bob", MachineID: "machine-other", Timestamp: old, Timeout: 4,
	})
	testutil.WriteLockRecord(t, dataDir, "team-b-search", lockfile.Record{
		Owner: "bob", MachineID: "machine-other", Timestamp: old, Timeout: 4,
	})

	out := mustExecute(t, "lock", "cleanup", "--pattern", "team-a-*")
	wantContains(t, out, "team-a-billing", "Checked 1 locks; 1 stale, 1 removed.")

	codec := lockfile.NewCodec(dataDir)
	if codec.Exists("team-a-billing") {
		t.Error("matching stale lock should be removed")
	}
	if !codec.Exists("team-b-search") {
		t.Error("non-matching lock should survive")
	}
}

func TestLockStatusJSON(t *testing.T) {
	testutil.SetupWorkspace(t)
	mustExecute(t, "lock", "acquire", "billing", "--owner", "alice")

	out := mustExecute(t, "lock", "status", "billing", "--json")
	var status struct {
		SpecID string `json:"spec_id"`
		Locked bool   `json:"locked"`
		Mine   bool   `json:"mine"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("failed to parse status JSON: %v\noutput:\n%s", err, out)
	}
	if status.SpecID != "billing" || !status.Locked || !status.Mine {
		t.Errorf("unexpected status: %+v", status)
	}
}

// ===== session =====

func TestSessionLifecycle(t *testing.T) {
	testutil.SetupWorkspace(t)

	out := mustExecute(t, "session", "start", "--id", "sess-1", "--objective", "wire the parser")
	wantContains(t, out, "Started session sess-1 (tool stagehand)")

	out = mustExecute(t, "session", "snapshot", "sess-1",
		"--summary", "parser half done", "--data", "files=3", "--status", "paused")
	wantContains(t, out, "Recorded snapshot on sess-1 (1 total)")

	out = mustExecute(t, "session", "resume", "latest", "--note", "back at it")
	wantContains(t, out, "Resumed session sess-1 (status active)")

	out = mustExecute(t, "session", "show", "sess-1")
	wantContains(t, out, "Session sess-1",
		"status:    active",
		"objective: wire the parser",
		"snapshots: 1 (last: parser half done)",
		"timeline:")

	out = mustExecute(t, "session", "list")
	wantContains(t, out, "SESSION", "sess-1", "active")
}

func TestSessionStartDuplicate(t *testing.T) {
	testutil.SetupWorkspace(t)
	mustExecute(t, "session", "start", "--id", "sess-1")

	if _, err := executeCommand(rootCmd, "session", "start", "--id", "sess-1"); err == nil {
		t.Fatal("expected duplicate session id to be rejected")
	}
}

func TestSessionSnapshotRejectsMalformedData(t *testing.T) {
	testutil.SetupWorkspace(t)
	mustExecute(t, "session", "start", "--id", "sess-1")

	_, err := executeCommand(rootCmd, "session", "snapshot", "sess-1",
		"--summary", "noted", "--data", "no-equals-sign")
	if err == nil || !strings.Contains(err.Error(), "key=value") {
		t.Fatalf("expected key=value validation error, got %v", err)
	}
}

func TestSessionShowJSON(t *testing.T) {
	testutil.SetupWorkspace(t)
	mustExecute(t, "session", "start", "--id", "sess-1", "--tool", "claude-code")

	out := mustExecute(t, "session", "show", "sess-1", "--json")
	var rec session.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("failed to parse session JSON: %v\noutput:\n%s", err, out)
	}
	if rec.SessionID != "sess-1" || rec.Tool != "claude-code" {
		t.Errorf("unexpected record: id=%s tool=%s", rec.SessionID, rec.Tool)
	}
}

func TestSessionListReportsCorrupted(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	mustExecute(t, "session", "start", "--id", "sess-ok")

	brokenDir := filepath.Join(dataDir, session.SessionsDirName, "sess-broken")
	if err := os.MkdirAll(brokenDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(brokenDir, session.SessionFileName), []byte("not valid json{"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "session", "list")
	wantContains(t, out, "sess-ok", "sess-broken", "CORRUPTED")
}

func TestSessionResumeNotFound(t *testing.T) {
	testutil.SetupWorkspace(t)

	if _, err := executeCommand(rootCmd, "session", "resume", "ghost"); err == nil {
		t.Fatal("expected resume of unknown session to fail")
	}
}

// ===== scene =====

func TestSceneCycle(t *testing.T) {
	testutil.SetupWorkspace(t)

	out := mustExecute(t, "scene", "begin", "demo", "--objective", "ship the parser")
	wantContains(t, out, "Began scene demo cycle 1 (session ")

	out = mustExecute(t, "scene", "begin", "demo")
	wantContains(t, out, "Scene demo already active on cycle 1")

	out = mustExecute(t, "scene", "bind", "billing")
	wantContains(t, out, "Bound billing to scene demo (resolved via single-active)",
		"scene session:", "spec session:")

	out = mustExecute(t, "scene", "status", "demo")
	wantContains(t, out, "Scene demo cycle 1", "ship the parser", "billing")

	out = mustExecute(t, "scene", "record", "demo", "--status", "completed", "--completed", "billing")
	wantContains(t, out, "Recorded completed result on scene demo", "[completed]")

	out = mustExecute(t, "scene", "complete", "demo", "--summary", "parser shipped")
	wantContains(t, out, "Completed scene demo cycle 1", "Cycle 2 now active")

	out = mustExecute(t, "scene", "status")
	wantContains(t, out, "SCENE", "demo", "2")
}

func TestSceneBindAmbiguous(t *testing.T) {
	testutil.SetupWorkspace(t)
	mustExecute(t, "scene", "begin", "alpha")
	mustExecute(t, "scene", "begin", "beta")

	if _, err := executeCommand(rootCmd, "scene", "bind", "billing"); err == nil {
		t.Fatal("expected bind with two active scenes to fail")
	}

	out := mustExecute(t, "scene", "bind", "billing", "--scene", "alpha")
	wantContains(t, out, "Bound billing to scene alpha (resolved via explicit)")
}

func TestSceneRecordUnboundSpecs(t *testing.T) {
	testutil.SetupWorkspace(t)
	mustExecute(t, "scene", "begin", "demo")

	out := mustExecute(t, "scene", "record", "demo", "--status", "failed", "--failed", "ghost")
	wantContains(t, out, "Recorded failed result on scene demo", "Specs with no bound session: [ghost]")
}

func TestSceneRecordEarlierCycle(t *testing.T) {
	testutil.SetupWorkspace(t)

	mustExecute(t, "scene", "begin", "demo")
	bindOut := mustExecute(t, "scene", "bind", "billing", "--json")
	var b struct {
		SceneSessionID string `json:"scene_session_id"`
	}
	if err := json.Unmarshal([]byte(bindOut), &b); err != nil {
		t.Fatalf("failed to parse bind JSON: %v\noutput:\n%s", err, bindOut)
	}
	mustExecute(t, "scene", "complete", "demo", "--summary", "wrapped")

	// The result arrives after the cycle closed; target its primary directly.
	out := mustExecute(t, "scene", "record", "demo",
		"--status", "completed", "--completed", "billing", "--session", b.SceneSessionID)
	wantContains(t, out, "Recorded completed result on scene demo (session "+b.SceneSessionID+")")

	_, err := executeCommand(rootCmd, "scene", "record", "demo",
		"--status", "completed", "--session", "sess-unrelated")
	if err == nil {
		t.Fatal("expected record against a non-scene session to fail")
	}
}

func TestSceneStatusInactive(t *testing.T) {
	testutil.SetupWorkspace(t)

	out := mustExecute(t, "scene", "status", "ghost")
	wantContains(t, out, "No active session for scene ghost")

	out = mustExecute(t, "scene", "status")
	wantContains(t, out, "No active scenes.")
}

// ===== spec backup =====

func TestSpecBackupFlow(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	specDir := filepath.Join(dataDir, lockfile.SpecsDirName, "billing")
	if err := os.MkdirAll(specDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(specDir, "config.yaml")
	original := []byte("lock:\n  default_timeout_hours: 2\n")
	if err := os.WriteFile(cfgPath, original, 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "spec", "backup", "create", "billing")
	wantContains(t, out, "Created backup config.yaml.backup-")

	listOut := mustExecute(t, "spec", "backup", "list", "billing")
	wantContains(t, listOut, "ID", "SIZE", "config.yaml.backup-")

	var backupID string
	for _, field := range strings.Fields(listOut) {
		if strings.HasPrefix(field, "config.yaml.backup-") {
			backupID = field
			break
		}
	}
	if backupID == "" {
		t.Fatalf("no backup id in list output:\n%s", listOut)
	}

	if err := os.WriteFile(cfgPath, []byte("lock:\n  default_timeout_hours: 99\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out = mustExecute(t, "spec", "backup", "restore", "billing", backupID)
	wantContains(t, out, "Restored "+backupID)

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, original) {
		t.Errorf("restore did not revert the file: %s", data)
	}

	out = mustExecute(t, "spec", "backup", "prune", "billing", "--max-age-hours", "0")
	wantContains(t, out, "Pruned 1 backups")

	out = mustExecute(t, "spec", "backup", "list", "billing")
	wantContains(t, out, "No backups for billing.")
}

func TestSpecBackupCreateRejectsPaths(t *testing.T) {
	testutil.SetupWorkspace(t)

	_, err := executeCommand(rootCmd, "spec", "backup", "create", "billing", "../escape.yaml")
	if err == nil || !strings.Contains(err.Error(), "file name") {
		t.Fatalf("expected path rejection, got %v", err)
	}
}

// ===== identity / audit / watch =====

func TestIdentityCommand(t *testing.T) {
	testutil.SetupWorkspace(t)
	testutil.WriteMachineIdentity(t, "machine-test-1", "debughost")

	out := mustExecute(t, "identity")
	wantContains(t, out, "Machine ID: machine-test-1", "Hostname:   debughost")

	out = mustExecute(t, "identity", "--json")
	var m struct {
		ID       string `json:"id"`
		Hostname string `json:"hostname"`
	}
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("failed to parse identity JSON: %v\noutput:\n%s", err, out)
	}
	if m.ID != "machine-test-1" || m.Hostname != "debughost" {
		t.Errorf("unexpected identity: %+v", m)
	}
}

func TestAuditCommandEmpty(t *testing.T) {
	testutil.SetupWorkspace(t)

	out := mustExecute(t, "audit")
	wantContains(t, out, "No audit entries recorded.")
}

func TestAuditCommandLimit(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	for _, spec := range []string{"a", "b", "c"} {
		testutil.WriteLockRecord(t, dataDir, spec, lockfile.Record{
			Owner: "bob", MachineID: "machine-other",
		})
		mustExecute(t, "lock", "release", spec, "--force", "--yes")
	}

	out := mustExecute(t, "audit", "--limit", "2")
	if got := strings.Count(out, "lock.forced_release"); got != 2 {
		t.Errorf("limit 2 showed %d entries:\n%s", got, out)
	}

	out = mustExecute(t, "audit", "--limit", "0")
	if got := strings.Count(out, "lock.forced_release"); got != 3 {
		t.Errorf("limit 0 should show all 3 entries, got %d:\n%s", got, out)
	}
}

func TestWatchRequiresTerminal(t *testing.T) {
	testutil.SetupWorkspace(t)

	_, err := executeCommand(rootCmd, "watch")
	if err == nil || !strings.Contains(err.Error(), "terminal") {
		t.Fatalf("expected TTY requirement error, got %v", err)
	}
}

// ===== configuration =====

func TestEnvOverridesTimeout(t *testing.T) {
	testutil.SetupWorkspace(t)
	t.Setenv("STAGEHAND_LOCK_DEFAULT_TIMEOUT_HOURS", "2")

	out := mustExecute(t, "lock", "acquire", "billing", "--owner", "alice")
	wantContains(t, out, "timeout 2.0h")
}

func TestPerSpecConfigOverride(t *testing.T) {
	dataDir := testutil.SetupWorkspace(t)
	specDir := filepath.Join(dataDir, lockfile.SpecsDirName, "billing")
	if err := os.MkdirAll(specDir, 0o755); err != nil {
		t.Fatal(err)
	}
	override := []byte("lock:\n  default_timeout_hours: 9\n")
	if err := os.WriteFile(filepath.Join(specDir, "config.yaml"), override, 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "lock", "acquire", "billing", "--owner", "alice")
	wantContains(t, out, "timeout 9.0h")

	// Other specs keep the base timeout.
	out = mustExecute(t, "lock", "acquire", "search", "--owner", "alice")
	wantContains(t, out, "timeout 4.0h")
}
