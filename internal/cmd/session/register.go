// Package session implements the session command group: starting, resuming,
// and inspecting agent session records.
package session

import "github.com/spf13/cobra"

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage agent session records",
}

// Register adds the session command group to the given parent command.
// This is the main entry point for integrating the session subpackage with
// the root command.
func Register(parent *cobra.Command) {
	RegisterStartCmd(sessionCmd)
	RegisterResumeCmd(sessionCmd)
	RegisterSnapshotCmd(sessionCmd)
	RegisterShowCmd(sessionCmd)
	RegisterListCmd(sessionCmd)
	parent.AddCommand(sessionCmd)
}
