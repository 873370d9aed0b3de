package lock

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/lock"
)

var releaseCmd = &cobra.Command{
	Use:   "release <spec-id>",
	Short: "Release the lock for a spec",
	Long: `Release a lock held by this machine. Releasing a spec nothing holds
is a no-op. A lock held by another machine is only cleared with --force,
which records the override on the audit trail; on a terminal, --force
asks for confirmation first unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelease,
}

var (
	releaseForce bool
	releaseYes   bool
	releaseActor string
)

func init() {
	releaseCmd.Flags().BoolVarP(&releaseForce, "force", "f", false, "release even if another machine holds the lock")
	releaseCmd.Flags().BoolVarP(&releaseYes, "yes", "y", false, "skip the confirmation prompt")
	releaseCmd.Flags().StringVar(&releaseActor, "actor", "", "actor label recorded on the audit entry for forced releases")
}

// RegisterReleaseCmd registers the release command with the given parent command.
func RegisterReleaseCmd(parent *cobra.Command) {
	parent.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	specID := args[0]

	cfg, err := config.ForSpec(specID)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	manager := cmdutil.NewLockManager(cfg, logger)
	out := cmd.OutOrStdout()

	if releaseForce && !releaseYes {
		mine, err := manager.IsLockedByMe(specID)
		if err != nil {
			return err
		}
		if holder := manager.Holder(specID); holder != nil && !mine {
			if !cmdutil.StdinIsTerminal() {
				return fmt.Errorf("forced release needs confirmation; rerun with --yes")
			}
			prompt := fmt.Sprintf("Force-release lock on %s held by %s (%s)?",
				specID, holder.Owner, holder.Hostname)
			ok, err := cmdutil.Confirm(cmd.InOrStdin(), out, prompt)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}
	}

	res, err := manager.Release(specID, lock.ReleaseOptions{
		Force: releaseForce,
		Actor: releaseActor,
	})
	if err != nil {
		return err
	}

	if !res.Success {
		fmt.Fprintln(out, res.Error)
		if res.Previous != nil {
			fmt.Fprintf(out, "  held by %s on %s; use --force to override\n",
				res.Previous.Owner, res.Previous.Hostname)
		}
		return fmt.Errorf("lock on %s not released", specID)
	}

	switch {
	case res.Forced && res.Previous != nil:
		fmt.Fprintf(out, "Force-released lock on %s (was held by %s on %s)\n",
			specID, res.Previous.Owner, res.Previous.Hostname)
	case res.Forced:
		fmt.Fprintf(out, "Cleared unreadable lock slot for %s\n", specID)
	case res.WasHeld:
		fmt.Fprintf(out, "Released lock on %s\n", specID)
	default:
		fmt.Fprintf(out, "No lock held for %s\n", specID)
	}
	return nil
}
