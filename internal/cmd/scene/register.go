// Package scene implements the scene command group: beginning and completing
// scene cycles, binding spec sessions to them, and applying orchestration
// results.
package scene

import "github.com/spf13/cobra"

var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Manage scene cycles and their spec sessions",
}

// Register adds the scene command group to the given parent command.
// This is the main entry point for integrating the scene subpackage with
// the root command.
func Register(parent *cobra.Command) {
	RegisterBeginCmd(sceneCmd)
	RegisterCompleteCmd(sceneCmd)
	RegisterStatusCmd(sceneCmd)
	RegisterBindCmd(sceneCmd)
	RegisterRecordCmd(sceneCmd)
	parent.AddCommand(sceneCmd)
}
