package spec

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/util"
)

var backupListCmd = &cobra.Command{
	Use:   "list <spec-id>",
	Short: "List backups for a spec",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupList,
}

var backupListJSON bool

func init() {
	backupListCmd.Flags().BoolVar(&backupListJSON, "json", false, "output as JSON")
}

// RegisterBackupListCmd registers the list command with the given parent command.
func RegisterBackupListCmd(parent *cobra.Command) {
	parent.AddCommand(backupListCmd)
}

func runBackupList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	backups, err := specKeeper(cfg, args[0]).List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if backupListJSON {
		return cmdutil.PrintJSON(out, backups)
	}

	if len(backups) == 0 {
		fmt.Fprintf(out, "No backups for %s.\n", args[0])
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIZE\tAGE")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%d\t%s\n", b.ID, b.Size, util.FormatAge(now.Sub(b.CreatedAt)))
	}
	return w.Flush()
}
