package session

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <session-id|latest>",
	Short: "Record a progress snapshot on a session",
	Long: `Append a progress snapshot to a session's record. Snapshots are
append-only; they are never edited or removed. --data attaches
structured key=value context to the snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

var (
	snapshotSummary string
	snapshotStatus  string
	snapshotData    []string
	snapshotJSON    bool
)

func init() {
	snapshotCmd.Flags().StringVar(&snapshotSummary, "summary", "", "one-line progress summary (required)")
	snapshotCmd.Flags().StringVar(&snapshotStatus, "status", "", "optionally transition the session status (active, paused, completed)")
	snapshotCmd.Flags().StringArrayVar(&snapshotData, "data", nil, "structured context as key=value (repeatable)")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "output the updated record as JSON")
	_ = snapshotCmd.MarkFlagRequired("summary")
}

// RegisterSnapshotCmd registers the snapshot command with the given parent command.
func RegisterSnapshotCmd(parent *cobra.Command) {
	parent.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	store := cmdutil.NewSessionStore(cfg, logger)
	id, err := store.Resolve(args[0])
	if err != nil {
		return err
	}

	var payload map[string]any
	if len(snapshotData) > 0 {
		payload = make(map[string]any, len(snapshotData))
		for _, pair := range snapshotData {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return errors.NewValidationError("data", pair, "must be key=value")
			}
			payload[key] = value
		}
	}

	rec, err := store.Snapshot(id, session.SnapshotOptions{
		Summary: snapshotSummary,
		Status:  session.Status(snapshotStatus),
		Payload: payload,
	})
	if err != nil {
		return err
	}

	if snapshotJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), rec)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded snapshot on %s (%d total)\n", rec.SessionID, len(rec.Snapshots))
	return nil
}
