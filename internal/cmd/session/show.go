package session

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id|latest>",
	Short: "Show one session record",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var showJSON bool

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}

// RegisterShowCmd registers the show command with the given parent command.
func RegisterShowCmd(parent *cobra.Command) {
	parent.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
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
	rec, err := store.Get(id)
	if err != nil {
		return err
	}

	if showJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), rec)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s\n", rec.SessionID)
	fmt.Fprintf(out, "  status:    %s\n", rec.Status)
	fmt.Fprintf(out, "  tool:      %s", rec.Tool)
	if rec.AgentVersion != "" {
		fmt.Fprintf(out, " %s", rec.AgentVersion)
	}
	fmt.Fprintln(out)
	if rec.Objective != "" {
		fmt.Fprintf(out, "  objective: %s\n", rec.Objective)
	}
	fmt.Fprintf(out, "  created:   %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  updated:   %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))

	if rec.Steering != nil {
		fmt.Fprintf(out, "  steering:  %s (supports %s)\n",
			rec.Steering.ManifestPath, strings.Join(rec.Steering.Compatibility.Supported, ", "))
	}

	if rec.Scene != nil {
		fmt.Fprintf(out, "  scene:     %s (%s, cycle %d, %s)\n",
			rec.Scene.ID, rec.Scene.Role, rec.Scene.Cycle, rec.Scene.State)
	}

	if rec.Children != nil && len(rec.Children.SpecSessions) > 0 {
		fmt.Fprintf(out, "  children (%d):\n", len(rec.Children.SpecSessions))
		for _, c := range rec.Children.SpecSessions {
			status := c.Status
			if status == "" {
				status = "-"
			}
			fmt.Fprintf(out, "    %-20s %s  [%s]\n", c.SpecID, c.SessionID, status)
		}
	}

	if len(rec.Snapshots) > 0 {
		last := rec.Snapshots[len(rec.Snapshots)-1]
		fmt.Fprintf(out, "  snapshots: %d (last: %s)\n", len(rec.Snapshots), last.Summary)
	}

	fmt.Fprintf(out, "  timeline:\n")
	for _, e := range rec.Timeline {
		line := fmt.Sprintf("    %s  %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Event)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
