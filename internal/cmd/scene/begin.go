package scene

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var beginCmd = &cobra.Command{
	Use:   "begin <scene-id>",
	Short: "Begin a scene, creating its primary session",
	Long: `Ensure the scene has an active primary session. If one already
exists it is reported unchanged, so begin is safe to run repeatedly.
Otherwise a new primary is created on the next cycle number.`,
	Args: cobra.ExactArgs(1),
	RunE: runBegin,
}

var (
	beginObjective    string
	beginTool         string
	beginAgentVersion string
	beginJSON         bool
)

func init() {
	beginCmd.Flags().StringVar(&beginObjective, "objective", "", "what this scene cycle is trying to accomplish")
	beginCmd.Flags().StringVar(&beginTool, "tool", "", "agent tool name for the primary session (defaults to config)")
	beginCmd.Flags().StringVar(&beginAgentVersion, "agent-version", "", "agent tool version")
	beginCmd.Flags().BoolVar(&beginJSON, "json", false, "output the primary session as JSON")
}

// RegisterBeginCmd registers the begin command with the given parent command.
func RegisterBeginCmd(parent *cobra.Command) {
	parent.AddCommand(beginCmd)
}

func runBegin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	tool := beginTool
	if tool == "" {
		tool = cfg.Session.Tool
	}

	store := cmdutil.NewSessionStore(cfg, logger)
	res, err := store.BeginScene(session.BeginSceneOptions{
		SceneID:      args[0],
		Objective:    beginObjective,
		Tool:         tool,
		AgentVersion: beginAgentVersion,
	})
	if err != nil {
		return err
	}

	if beginJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), res.Session)
	}

	out := cmd.OutOrStdout()
	rec := res.Session
	if res.CreatedNew {
		fmt.Fprintf(out, "Began scene %s cycle %d (session %s)\n", rec.Scene.ID, rec.Scene.Cycle, rec.SessionID)
	} else {
		fmt.Fprintf(out, "Scene %s already active on cycle %d (session %s)\n", rec.Scene.ID, rec.Scene.Cycle, rec.SessionID)
	}
	return nil
}
