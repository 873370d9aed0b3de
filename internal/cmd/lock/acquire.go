package lock

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/lock"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire <spec-id>",
	Short: "Acquire the lock for a spec",
	Long: `Reserve a spec for this machine. Acquisition is single-shot: if
another machine holds a live lock the command reports the holder and
exits non-zero; it never waits. An expired foreign lock is reclaimed in
the same call and the takeover is recorded on the audit trail.`,
	Args: cobra.ExactArgs(1),
	RunE: runAcquire,
}

var (
	acquireOwner   string
	acquireReason  string
	acquireTimeout float64
)

func init() {
	acquireCmd.Flags().StringVar(&acquireOwner, "owner", "", "owner label stamped on the lock (defaults to config, then hostname)")
	acquireCmd.Flags().StringVar(&acquireReason, "reason", "", "why the lock is being taken")
	acquireCmd.Flags().Float64Var(&acquireTimeout, "timeout", 0, "lock lifetime in hours (defaults to config)")
}

// RegisterAcquireCmd registers the acquire command with the given parent command.
func RegisterAcquireCmd(parent *cobra.Command) {
	parent.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	specID := args[0]

	// Per-spec overrides apply here: a spec can carry its own timeout or
	// owner label in specs/<id>/config.yaml.
	cfg, err := config.ForSpec(specID)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	owner := acquireOwner
	if owner == "" {
		owner = cfg.Lock.Owner
	}

	manager := cmdutil.NewLockManager(cfg, logger)
	res, err := manager.Acquire(specID, lock.AcquireOptions{
		Owner:        owner,
		Reason:       acquireReason,
		TimeoutHours: acquireTimeout,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Success {
		fmt.Fprintln(out, res.Error)
		if res.Existing != nil {
			fmt.Fprintf(out, "  held by %s on %s since %s (timeout %.1fh)\n",
				res.Existing.Owner, res.Existing.Hostname,
				res.Existing.Timestamp.Format("2006-01-02 15:04:05"), res.Existing.Timeout)
		}
		return fmt.Errorf("spec %s is locked", specID)
	}

	if res.AlreadyHeld {
		fmt.Fprintf(out, "Lock for %s already held by this machine (owner %s)\n", specID, res.Record.Owner)
		return nil
	}

	fmt.Fprintf(out, "Acquired lock for %s (owner %s, timeout %.1fh)\n",
		specID, res.Record.Owner, res.Record.Timeout)
	return nil
}
