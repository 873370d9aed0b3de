package session

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id|latest>",
	Short: "Resume an existing session",
	Long: `Reopen a session and append a resume entry to its timeline. The id
"latest" resumes the most recently written session. The session status
is set to active unless --status says otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

var (
	resumeStatus string
	resumeNote   string
	resumeJSON   bool
)

func init() {
	resumeCmd.Flags().StringVar(&resumeStatus, "status", "", "status to resume into (active, paused, completed)")
	resumeCmd.Flags().StringVar(&resumeNote, "note", "", "note recorded on the timeline entry")
	resumeCmd.Flags().BoolVar(&resumeJSON, "json", false, "output the updated record as JSON")
}

// RegisterResumeCmd registers the resume command with the given parent command.
func RegisterResumeCmd(parent *cobra.Command) {
	parent.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	store := cmdutil.NewSessionStore(cfg, logger)
	rec, err := store.Resume(args[0], session.ResumeOptions{
		Status: session.Status(resumeStatus),
		Note:   resumeNote,
	})
	if err != nil {
		return err
	}

	if resumeJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), rec)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Resumed session %s (status %s)\n", rec.SessionID, rec.Status)
	return nil
}
