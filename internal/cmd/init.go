package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/identity"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workspace data directory",
	Long: `Create the .stagehand data directory skeleton in the configured
workspace, establish the machine identity, and write a starter config
file if none exists. Running init in an initialized workspace is safe.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// defaultConfigTemplate is written verbatim so the generated file carries
// comments; marshaling the config struct would lose them.
const defaultConfigTemplate = `# stagehand configuration
workspace:
  # Directory holding the data dir. Relative paths resolve against the
  # process working directory.
  root: "."
  # Data directory under root. Absolute paths are used as-is.
  data_dir: ".stagehand"

lock:
  # Hours before an unreleased lock counts as stale.
  default_timeout_hours: 4
  # Label stamped on acquired locks. Defaults to the machine hostname.
  owner: ""
  # Version tag stamped into lock records.
  version: ""

session:
  # Tool name recorded on sessions started without --tool.
  tool: "stagehand"
  # Snapshot session.json into a backups/ directory before each rewrite.
  backup_on_rewrite: false

backup:
  # Backups older than this many hours are removed by prune.
  max_age_hours: 168

logging:
  level: "info"
  file_enabled: true
  max_size_mb: 10
  max_backups: 3
`

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dataDir := cfg.DataDir()
	_, statErr := os.Stat(dataDir)
	existed := statErr == nil

	subdirs := []string{
		lockfile.SpecsDirName,
		session.SessionsDirName,
		audit.AuditDirName,
		"logs",
	}
	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	machine, err := identity.NewFileProvider("").Identity()
	if err != nil {
		return fmt.Errorf("failed to establish machine identity: %w", err)
	}

	out := cmd.OutOrStdout()
	if existed {
		fmt.Fprintf(out, "Workspace already initialized at %s\n", dataDir)
	} else {
		fmt.Fprintf(out, "Initialized workspace at %s\n", dataDir)
	}
	fmt.Fprintf(out, "Machine identity: %s (%s)\n", machine.ID, machine.Hostname)

	cfgFile := config.ConfigFile()
	if _, err := os.Stat(cfgFile); err == nil {
		fmt.Fprintf(out, "Config: %s\n", cfgFile)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfgFile), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgFile, []byte(defaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	fmt.Fprintf(out, "Wrote default config to %s\n", cfgFile)
	return nil
}
