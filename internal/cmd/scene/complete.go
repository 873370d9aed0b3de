package scene

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var completeCmd = &cobra.Command{
	Use:   "complete <scene-id>",
	Short: "Complete the scene's current cycle",
	Long: `Close the scene's active primary session and immediately open the
next cycle, so the scene keeps exactly one active primary. The summary
is stored as the closing snapshot of the completed cycle. With
--session the completion only proceeds if that session is the scene's
current primary.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

var (
	completeSession string
	completeSummary string
	completeJSON    bool
)

func init() {
	completeCmd.Flags().StringVar(&completeSession, "session", "", "expected primary session id (guards against racing completions)")
	completeCmd.Flags().StringVar(&completeSummary, "summary", "", "closing summary for the completed cycle")
	completeCmd.Flags().BoolVar(&completeJSON, "json", false, "output completed and next sessions as JSON")
}

// RegisterCompleteCmd registers the complete command with the given parent command.
func RegisterCompleteCmd(parent *cobra.Command) {
	parent.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	store := cmdutil.NewSessionStore(cfg, logger)
	res, err := store.CompleteScene(args[0], session.CompleteSceneOptions{
		SessionID: completeSession,
		Summary:   completeSummary,
	})
	if err != nil {
		return err
	}

	if completeJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completed scene %s cycle %d (session %s)\n",
		args[0], res.Completed.Scene.Cycle, res.Completed.SessionID)
	fmt.Fprintf(out, "Cycle %d now active (session %s)\n",
		res.Next.Scene.Cycle, res.Next.SessionID)
	return nil
}
