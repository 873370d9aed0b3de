package lock

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/lock"
	"github.com/stagehand-sh/stagehand/internal/util"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List held locks",
	Long: `List every lock slot in the workspace, including expired records
that have not been cleaned up yet. A glob pattern narrows the listing
to matching spec ids.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listPattern string
	listJSON    bool
)

func init() {
	listCmd.Flags().StringVar(&listPattern, "pattern", "", "glob pattern filtering spec ids (e.g. 'auth-*')")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

// RegisterListCmd registers the list command with the given parent command.
func RegisterListCmd(parent *cobra.Command) {
	parent.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	manager := cmdutil.NewLockManager(cfg, logger)
	locks, err := manager.List(listPattern)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listJSON {
		return cmdutil.PrintJSON(out, locks)
	}

	if len(locks) == 0 {
		fmt.Fprintln(out, "No locks held.")
		return nil
	}

	now := time.Now().UTC()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPEC\tOWNER\tHOST\tAGE\tTIMEOUT\tSTATE")
	for _, l := range locks {
		state := "held"
		if l.Expired {
			state = "expired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1fh\t%s\n",
			l.SpecID, util.TruncateString(l.Record.Owner, 24), l.Record.Hostname,
			util.FormatAge(lock.Age(l.Record, now)), l.Record.Timeout, state)
	}
	return w.Flush()
}
