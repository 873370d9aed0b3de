package spec

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/config"
)

var backupPruneCmd = &cobra.Command{
	Use:   "prune <spec-id>",
	Short: "Remove old backups for a spec",
	Long: `Remove backups older than the retention age. The age defaults to
backup.max_age_hours from the config; --max-age-hours overrides it.
An age of 0 removes every backup.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupPrune,
}

var pruneMaxAgeHours float64

func init() {
	backupPruneCmd.Flags().Float64Var(&pruneMaxAgeHours, "max-age-hours", -1, "retention age in hours (defaults to config)")
}

// RegisterBackupPruneCmd registers the prune command with the given parent command.
func RegisterBackupPruneCmd(parent *cobra.Command) {
	parent.AddCommand(backupPruneCmd)
}

func runBackupPrune(cmd *cobra.Command, args []string) error {
	cfg, err := config.ForSpec(args[0])
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	maxAge := cfg.Backup.MaxAge()
	if pruneMaxAgeHours >= 0 {
		maxAge = time.Duration(pruneMaxAgeHours * float64(time.Hour))
	}

	removed, err := specKeeper(cfg, args[0]).Prune(maxAge)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d backups older than %s\n", removed, maxAge)
	return nil
}
