package scene

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status [<scene-id>]",
	Short: "Show active scenes",
	Long: `Without arguments, list the active primary session of every scene.
With a scene id, show that scene's primary and its bound spec sessions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

// RegisterStatusCmd registers the status command with the given parent command.
func RegisterStatusCmd(parent *cobra.Command) {
	parent.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	store := cmdutil.NewSessionStore(cfg, logger)
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		sceneID := args[0]
		primary, err := store.ActivePrimary(sceneID)
		if err != nil {
			return err
		}
		if primary == nil {
			if statusJSON {
				return cmdutil.PrintJSON(out, nil)
			}
			fmt.Fprintf(out, "No active session for scene %s\n", sceneID)
			return nil
		}
		if statusJSON {
			return cmdutil.PrintJSON(out, primary)
		}

		fmt.Fprintf(out, "Scene %s cycle %d (session %s)\n", sceneID, primary.Scene.Cycle, primary.SessionID)
		if primary.Objective != "" {
			fmt.Fprintf(out, "  objective: %s\n", primary.Objective)
		}
		fmt.Fprintf(out, "  updated:   %s\n", primary.UpdatedAt.Format("2006-01-02 15:04:05"))
		if primary.Children == nil || len(primary.Children.SpecSessions) == 0 {
			fmt.Fprintln(out, "  no spec sessions bound")
			return nil
		}
		fmt.Fprintf(out, "  specs (%d):\n", len(primary.Children.SpecSessions))
		for _, c := range primary.Children.SpecSessions {
			status := c.Status
			if status == "" {
				status = "-"
			}
			fmt.Fprintf(out, "    %-20s %s  [%s]\n", c.SpecID, c.SessionID, status)
		}
		return nil
	}

	primaries, err := store.ActiveScenes()
	if err != nil {
		return err
	}
	if statusJSON {
		return cmdutil.PrintJSON(out, primaries)
	}
	if len(primaries) == 0 {
		fmt.Fprintln(out, "No active scenes.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tCYCLE\tSESSION\tSPECS\tOBJECTIVE")
	for _, p := range primaries {
		count := 0
		if p.Children != nil {
			count = len(p.Children.SpecSessions)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n",
			p.Scene.ID, p.Scene.Cycle, p.SessionID, count,
			util.TruncateString(p.Objective, 40))
	}
	return w.Flush()
}
