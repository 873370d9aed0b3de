package spec

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/config"
)

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <spec-id> <backup-id>",
	Short: "Restore a backup over its original file",
	Args:  cobra.ExactArgs(2),
	RunE:  runBackupRestore,
}

// RegisterBackupRestoreCmd registers the restore command with the given parent command.
func RegisterBackupRestoreCmd(parent *cobra.Command) {
	parent.AddCommand(backupRestoreCmd)
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := specKeeper(cfg, args[0]).Restore(args[1]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[1])
	return nil
}
