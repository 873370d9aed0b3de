package scene

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/binding"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/orchestration"
	"github.com/stagehand-sh/stagehand/internal/session"
)

var bindCmd = &cobra.Command{
	Use:   "bind <spec-id>",
	Short: "Start a spec session bound to a scene",
	Long: `Start a new session for a spec and record it under a scene's primary
session. The scene is picked by the first strategy that yields one:
an explicit --scene, the most recent studio job reference, or the only
active scene. With several active scenes and no other signal, the
command fails rather than guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runBind,
}

var (
	bindScene     string
	bindObjective string
	bindTool      string
	bindJSON      bool
)

func init() {
	bindCmd.Flags().StringVar(&bindScene, "scene", "", "scene id to bind to (skips automatic resolution)")
	bindCmd.Flags().StringVar(&bindObjective, "objective", "", "objective for the spec session")
	bindCmd.Flags().StringVar(&bindTool, "tool", "", "agent tool name for the spec session (defaults to config)")
	bindCmd.Flags().BoolVar(&bindJSON, "json", false, "output the binding as JSON")
}

// RegisterBindCmd registers the bind command with the given parent command.
func RegisterBindCmd(parent *cobra.Command) {
	parent.AddCommand(bindCmd)
}

type bindOutput struct {
	SpecID         string         `json:"spec_id"`
	SceneID        string         `json:"scene_id"`
	SceneSessionID string         `json:"scene_session_id"`
	SpecSessionID  string         `json:"spec_session_id"`
	Source         binding.Source `json:"source"`
}

func runBind(cmd *cobra.Command, args []string) error {
	specID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	store := cmdutil.NewSessionStore(cfg, logger)
	resolver := cmdutil.NewResolver(store, cfg, logger)

	b, err := resolver.Resolve(binding.Request{SceneID: bindScene, SpecID: specID})
	if err != nil {
		return err
	}

	primary, err := store.Get(b.SceneSessionID)
	if err != nil {
		return err
	}

	objective := bindObjective
	if objective == "" {
		objective = fmt.Sprintf("spec %s under scene %s", specID, b.SceneID)
	}
	tool := bindTool
	if tool == "" {
		tool = cfg.Session.Tool
	}

	child, err := store.Start(session.StartOptions{
		Tool:      tool,
		Objective: objective,
		Scene: &session.SceneRef{
			ID:    b.SceneID,
			Role:  session.RoleChild,
			State: session.SceneActive,
			Cycle: primary.Scene.Cycle,
		},
	})
	if err != nil {
		return err
	}

	if _, err := store.BindChild(b.SceneSessionID, session.ChildBinding{
		SpecID:    specID,
		SessionID: child.SessionID,
		Status:    string(orchestration.StatusRunning),
	}); err != nil {
		return err
	}

	if bindJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), bindOutput{
			SpecID:         specID,
			SceneID:        b.SceneID,
			SceneSessionID: b.SceneSessionID,
			SpecSessionID:  child.SessionID,
			Source:         b.Source,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bound %s to scene %s (resolved via %s)\n", specID, b.SceneID, b.Source)
	fmt.Fprintf(out, "  scene session: %s\n", b.SceneSessionID)
	fmt.Fprintf(out, "  spec session:  %s\n", child.SessionID)
	return nil
}
