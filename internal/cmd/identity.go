package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/identity"
)

var identityJSON bool

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show the machine identity used for lock ownership",
	Long: `Show the stable machine identity stamped into lock records. The
identity is created on first use and persisted under the user config
directory, so every stagehand process on this machine reports the same id.`,
	Args: cobra.NoArgs,
	RunE: runIdentity,
}

func init() {
	identityCmd.Flags().BoolVar(&identityJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(identityCmd)
}

func runIdentity(cmd *cobra.Command, args []string) error {
	provider := identity.NewFileProvider("")
	machine, err := provider.Identity()
	if err != nil {
		return fmt.Errorf("failed to resolve machine identity: %w", err)
	}

	if identityJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), machine)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Machine ID: %s\n", machine.ID)
	fmt.Fprintf(out, "Hostname:   %s\n", machine.Hostname)
	fmt.Fprintf(out, "Created:    %s\n", machine.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "File:       %s\n", provider.Path())
	return nil
}
