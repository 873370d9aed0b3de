package lock

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/lock"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status <spec-id>",
	Short: "Show who holds the lock for a spec",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

// RegisterStatusCmd registers the status command with the given parent command.
func RegisterStatusCmd(parent *cobra.Command) {
	parent.AddCommand(statusCmd)
}

type statusOutput struct {
	SpecID  string           `json:"spec_id"`
	Locked  bool             `json:"locked"`
	Expired bool             `json:"expired,omitempty"`
	Mine    bool             `json:"mine,omitempty"`
	Record  *lockfile.Record `json:"record,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	specID := args[0]

	cfg, err := config.ForSpec(specID)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	manager := cmdutil.NewLockManager(cfg, logger)
	out := cmd.OutOrStdout()

	rec := manager.Holder(specID)
	if rec == nil {
		if statusJSON {
			return cmdutil.PrintJSON(out, statusOutput{SpecID: specID, Locked: false})
		}
		fmt.Fprintf(out, "%s is not locked\n", specID)
		return nil
	}

	now := time.Now().UTC()
	expired := lock.Expired(rec, now)
	mine, err := manager.IsLockedByMe(specID)
	if err != nil {
		return err
	}

	if statusJSON {
		return cmdutil.PrintJSON(out, statusOutput{
			SpecID:  specID,
			Locked:  true,
			Expired: expired,
			Mine:    mine,
			Record:  rec,
		})
	}

	age := lock.Age(rec, now)
	fmt.Fprintf(out, "%s locked by %s on %s\n", specID, rec.Owner, rec.Hostname)
	fmt.Fprintf(out, "  machine:  %s\n", rec.MachineID)
	fmt.Fprintf(out, "  since:    %s (%s ago)\n", rec.Timestamp.Format("2006-01-02 15:04:05"), util.FormatAge(age))
	if expired {
		fmt.Fprintf(out, "  timeout:  %.1fh (expired)\n", rec.Timeout)
	} else {
		remaining := time.Duration(rec.Timeout*float64(time.Hour)) - age
		fmt.Fprintf(out, "  timeout:  %.1fh (%s remaining)\n", rec.Timeout, util.FormatAge(remaining))
	}
	if rec.Reason != "" {
		fmt.Fprintf(out, "  reason:   %s\n", rec.Reason)
	}
	if mine {
		fmt.Fprintln(out, "  held by this machine")
	}
	return nil
}
