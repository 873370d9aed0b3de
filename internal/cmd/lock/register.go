// Package lock implements the lock command group: acquiring, releasing,
// inspecting, and sweeping per-spec advisory locks.
package lock

import "github.com/spf13/cobra"

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Manage per-spec advisory locks",
}

// Register adds the lock command group to the given parent command.
// This is the main entry point for integrating the lock subpackage with
// the root command.
func Register(parent *cobra.Command) {
	RegisterAcquireCmd(lockCmd)
	RegisterReleaseCmd(lockCmd)
	RegisterStatusCmd(lockCmd)
	RegisterListCmd(lockCmd)
	RegisterCleanupCmd(lockCmd)
	parent.AddCommand(lockCmd)
}
