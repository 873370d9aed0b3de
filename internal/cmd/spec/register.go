// Package spec implements the spec command group, currently the backup
// subcommands for the files kept under a spec's directory.
package spec

import "github.com/spf13/cobra"

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Work with per-spec workspace files",
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage timestamped backups of spec files",
	Long: `Manage backups of the files kept under a spec's directory, such as
its config override. Backups live in a backups/ directory next to the
originals and carry a timestamped suffix.`,
}

// Register adds the spec command group to the given parent command.
// This is the main entry point for integrating the spec subpackage with
// the root command.
func Register(parent *cobra.Command) {
	RegisterBackupCreateCmd(backupCmd)
	RegisterBackupListCmd(backupCmd)
	RegisterBackupRestoreCmd(backupCmd)
	RegisterBackupPruneCmd(backupCmd)
	specCmd.AddCommand(backupCmd)
	parent.AddCommand(specCmd)
}
