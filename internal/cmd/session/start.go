package session

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new session",
	Long: `Create a new session record in the workspace. The record embeds a
snapshot of the current steering contract, so later runs can tell what
guidance the session started under. An id is generated unless --id is
given; starting an id that already exists fails.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var (
	startID           string
	startTool         string
	startAgentVersion string
	startObjective    string
	startJSON         bool
)

func init() {
	startCmd.Flags().StringVar(&startID, "id", "", "session id (generated when empty)")
	startCmd.Flags().StringVar(&startTool, "tool", "", "agent tool name (defaults to config)")
	startCmd.Flags().StringVar(&startAgentVersion, "agent-version", "", "agent tool version")
	startCmd.Flags().StringVar(&startObjective, "objective", "", "what this session is trying to accomplish")
	startCmd.Flags().BoolVar(&startJSON, "json", false, "output the created record as JSON")
}

// RegisterStartCmd registers the start command with the given parent command.
func RegisterStartCmd(parent *cobra.Command) {
	parent.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	tool := startTool
	if tool == "" {
		tool = cfg.Session.Tool
	}

	store := cmdutil.NewSessionStore(cfg, logger)
	rec, err := store.Start(session.StartOptions{
		SessionID:    startID,
		Tool:         tool,
		AgentVersion: startAgentVersion,
		Objective:    startObjective,
	})
	if err != nil {
		return err
	}

	if startJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), rec)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Started session %s (tool %s)\n", rec.SessionID, rec.Tool)
	if rec.Objective != "" {
		fmt.Fprintf(out, "  objective: %s\n", rec.Objective)
	}
	if rec.Steering != nil {
		fmt.Fprintf(out, "  steering:  %s\n", rec.Steering.ManifestPath)
	}
	return nil
}
