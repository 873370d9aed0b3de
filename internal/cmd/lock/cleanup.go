package lock

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/lock"
	"github.com/stagehand-sh/stagehand/internal/util"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale locks",
	Long: `Sweep the lock slots and remove records whose timeout has elapsed.
Each removal is recorded on the audit trail. With --dry-run the stale
locks are reported but left in place.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var (
	cleanupPattern string
	cleanupDryRun  bool
	cleanupActor   string
	cleanupJSON    bool
)

func init() {
	cleanupCmd.Flags().StringVar(&cleanupPattern, "pattern", "", "glob pattern filtering spec ids (e.g. 'auth-*')")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "report stale locks without removing them")
	cleanupCmd.Flags().StringVar(&cleanupActor, "actor", "", "actor label recorded on the audit entries")
	cleanupCmd.Flags().BoolVar(&cleanupJSON, "json", false, "output as JSON")
}

// RegisterCleanupCmd registers the cleanup command with the given parent command.
func RegisterCleanupCmd(parent *cobra.Command) {
	parent.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	manager := cmdutil.NewLockManager(cfg, logger)
	res, err := manager.CleanupStale(lock.CleanupOptions{
		Pattern: cleanupPattern,
		Actor:   cleanupActor,
		DryRun:  cleanupDryRun,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cleanupJSON {
		return cmdutil.PrintJSON(out, res)
	}

	if len(res.Stale) == 0 {
		fmt.Fprintf(out, "Checked %d locks; none stale.\n", res.Checked)
		return nil
	}

	verb := "Removed"
	if cleanupDryRun {
		verb = "Would remove"
	}
	for _, s := range res.Stale {
		fmt.Fprintf(out, "%s stale lock on %s (held by %s on %s, age %s)\n",
			verb, s.SpecID, s.Record.Owner, s.Record.Hostname, util.FormatAge(s.Age))
	}
	fmt.Fprintf(out, "Checked %d locks; %d stale, %d removed.\n", res.Checked, len(res.Stale), res.Removed)
	return nil
}
