// Package testutil provides shared fixtures for stagehand tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/identity"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/session"
)

// SetupWorkspace creates an isolated stagehand workspace for a test.
// It points STAGEHAND_WORKSPACE_ROOT at a fresh temp directory, redirects
// XDG_CONFIG_HOME so machine identity and user config stay out of the real
// home directory, and resets viper when the test completes. Returns the
// workspace data directory.
func SetupWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv("STAGEHAND_WORKSPACE_ROOT", root)
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))
	t.Cleanup(viper.Reset)

	dataDir := filepath.Join(root, ".stagehand")
	for _, sub := range []string{
		lockfile.SpecsDirName,
		session.SessionsDirName,
		audit.AuditDirName,
		"logs",
	} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", sub, err)
		}
	}
	return dataDir
}

// WriteLockRecord writes a lock record for specID under dataDir and returns
// the lock file path. Zero Timestamp and Timeout fields are filled with
// usable defaults.
func WriteLockRecord(t *testing.T, dataDir, specID string, rec lockfile.Record) string {
	t.Helper()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.Timeout == 0 {
		rec.Timeout = 4
	}
	if rec.Version == "" {
		rec.Version = "test"
	}

	codec := lockfile.NewCodec(dataDir)
	if err := codec.Write(specID, &rec); err != nil {
		t.Fatalf("failed to write lock record for %s: %v", specID, err)
	}
	return codec.LockPath(specID)
}

// WriteSessionRecord writes a session record under dataDir, bypassing the
// store. Useful for staging pre-existing or hand-crafted session state.
// Returns the session file path.
func WriteSessionRecord(t *testing.T, dataDir string, rec *session.Record) string {
	t.Helper()

	if rec.SessionID == "" {
		t.Fatal("session record needs a session_id")
	}
	if rec.Tool == "" {
		rec.Tool = session.DefaultTool
	}
	if rec.Status == "" {
		rec.Status = session.StatusActive
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	dir := filepath.Join(dataDir, session.SessionsDirName, rec.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create session dir: %v", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal session record: %v", err)
	}
	path := filepath.Join(dir, session.SessionFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write session record: %v", err)
	}
	return path
}

// WriteMachineIdentity pins the machine identity file to a known value.
// Call after SetupWorkspace so the file lands under the test's
// XDG_CONFIG_HOME rather than the real one.
func WriteMachineIdentity(t *testing.T, id, hostname string) *identity.Machine {
	t.Helper()

	path, err := identity.DefaultPath()
	if err != nil {
		t.Fatalf("failed to resolve identity path: %v", err)
	}
	m := &identity.Machine{
		ID:        id,
		Hostname:  hostname,
		CreatedAt: time.Now().UTC(),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create identity dir: %v", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal machine identity: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write machine identity: %v", err)
	}
	return m
}

// StaticIdentity returns an identity provider with a fixed machine ID,
// for wiring managers directly in library tests.
func StaticIdentity(id string) *identity.StaticProvider {
	return identity.NewStaticProvider(id, "test-host")
}

// ResetCommand restores every flag in the command tree to its default value
// and clears the changed markers. Flag values live in package-level vars,
// so a value set by one test invocation would otherwise leak into the next.
func ResetCommand(cmd *cobra.Command) {
	resetFlags(cmd.Flags())
	resetFlags(cmd.PersistentFlags())
	for _, sub := range cmd.Commands() {
		ResetCommand(sub)
	}
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}
