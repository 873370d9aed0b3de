package scene

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/orchestration"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var recordCmd = &cobra.Command{
	Use:   "record <scene-id>",
	Short: "Apply an orchestration result to a scene's spec sessions",
	Long: `Fan an orchestration run's outcome out to the statuses of the spec
sessions bound under a scene primary. Specs named on a failure list
are marked failed even if also listed as completed. Specs with no
bound session are reported, never invented. By default the result is
applied to the scene's active primary; --session targets an earlier
cycle's primary instead, for results that arrive after the cycle
closed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

var (
	recordStatus    string
	recordCompleted []string
	recordFailed    []string
	recordSession   string
	recordJSON      bool
)

func init() {
	recordCmd.Flags().StringVar(&recordStatus, "status", "", "overall result status (completed, failed, partial, running)")
	recordCmd.Flags().StringSliceVar(&recordCompleted, "completed", nil, "spec ids that completed")
	recordCmd.Flags().StringSliceVar(&recordFailed, "failed", nil, "spec ids that failed")
	recordCmd.Flags().StringVar(&recordSession, "session", "", "scene primary session to apply to (defaults to the active primary)")
	recordCmd.Flags().BoolVar(&recordJSON, "json", false, "output the applied report as JSON")
	_ = recordCmd.MarkFlagRequired("status")
}

// RegisterRecordCmd registers the record command with the given parent command.
func RegisterRecordCmd(parent *cobra.Command) {
	parent.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	sceneID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	store := cmdutil.NewSessionStore(cfg, logger)

	sessionID := recordSession
	if sessionID == "" {
		primary, err := store.ActivePrimary(sceneID)
		if err != nil {
			return err
		}
		if primary == nil {
			return fmt.Errorf("%w: %s", session.ErrSceneNotFound, sceneID)
		}
		sessionID = primary.SessionID
	} else {
		rec, err := store.Get(sessionID)
		if err != nil {
			return err
		}
		if rec.Scene == nil || rec.Scene.ID != sceneID {
			return errors.NewValidationError("session", sessionID,
				fmt.Sprintf("not a session of scene %s", sceneID))
		}
	}

	recorder := orchestration.NewRecorder(store, orchestration.WithLogger(logger))
	report, err := recorder.Apply(sessionID, orchestration.Result{
		Status:    orchestration.Status(recordStatus),
		Completed: recordCompleted,
		Failed:    recordFailed,
	})
	if err != nil {
		return err
	}

	if recordJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recorded %s result on scene %s (session %s)\n", recordStatus, sceneID, report.SceneSessionID)
	for _, b := range report.Applied {
		fmt.Fprintf(out, "  %-20s %s  [%s]\n", b.SpecID, b.SessionID, b.Status)
	}
	if len(report.Unbound) > 0 {
		fmt.Fprintf(out, "Specs with no bound session: %v\n", report.Unbound)
	}
	return nil
}
