// Package cmdutil wires command implementations to the packages behind them.
// Every stagehand command builds its collaborators the same way: load config,
// build a logger from it, then construct the manager or store rooted at the
// workspace data directory. Centralizing that here keeps the command files
// down to flag parsing and output.
package cmdutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/binding"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/identity"
	"github.com/stagehand-sh/stagehand/internal/jobref"
	"github.com/stagehand-sh/stagehand/internal/lock"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/logging"
	"github.com/stagehand-sh/stagehand/internal/session"
)

// NewLogger builds a logger from the logging section of the config. When file
// logging is disabled or the log directory cannot be created, commands still
// run; they just run quietly.
func NewLogger(cfg *config.Config) *logging.Logger {
	if !cfg.Logging.FileEnabled {
		return logging.NopLogger()
	}

	rotation := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	logger, err := logging.NewWithRotation(cfg.LogsDir(), cfg.Logging.Level, rotation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

// NewLockManager builds the lock manager for the configured workspace, with
// auditing and machine identity wired in.
func NewLockManager(cfg *config.Config, logger *logging.Logger) *lock.Manager {
	dataDir := cfg.DataDir()
	opts := []lock.Option{
		lock.WithAudit(audit.NewFileRecorder(dataDir)),
		lock.WithLogger(logger),
		lock.WithDefaultTimeout(cfg.Lock.DefaultTimeoutHours),
	}
	if cfg.Lock.Version != "" {
		opts = append(opts, lock.WithVersion(cfg.Lock.Version))
	}
	return lock.NewManager(lockfile.NewCodec(dataDir), identity.NewFileProvider(""), opts...)
}

// NewSessionStore builds the session store for the configured workspace.
func NewSessionStore(cfg *config.Config, logger *logging.Logger) *session.Store {
	return session.NewStore(cfg.DataDir(),
		session.WithLogger(logger),
		session.WithBackupOnRewrite(cfg.Session.BackupOnRewrite),
	)
}

// NewResolver builds a scene binding resolver over the given session store
// and the workspace's studio job references.
func NewResolver(store *session.Store, cfg *config.Config, logger *logging.Logger) *binding.Resolver {
	return binding.NewResolver(store, jobref.NewReader(cfg.DataDir()), binding.WithLogger(logger))
}

// PrintJSON writes v as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// Confirm prints a yes/no prompt and reads one line of input. Anything other
// than "y" or "yes" (case-insensitive) declines.
func Confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// StdinIsTerminal reports whether stdin is attached to a terminal.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// StdoutIsTerminal reports whether stdout is attached to a terminal.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
