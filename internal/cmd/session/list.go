package session

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/util"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Long: `List every session in the workspace, newest first. Records that no
longer decode are flagged corrupted rather than hidden.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

// RegisterListCmd registers the list command with the given parent command.
func RegisterListCmd(parent *cobra.Command) {
	parent.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	store := cmdutil.NewSessionStore(cfg, logger)
	infos, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listJSON {
		return cmdutil.PrintJSON(out, infos)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTATUS\tSCENE\tCHILDREN\tUPDATED\tOBJECTIVE")
	for _, info := range infos {
		if info.Corrupted {
			fmt.Fprintf(w, "%s\tCORRUPTED\t-\t-\t%s\t(unreadable: %s)\n",
				info.SessionID, info.UpdatedAt.Format("2006-01-02 15:04"), info.Path)
			continue
		}
		scene := "-"
		if info.Scene != nil {
			scene = fmt.Sprintf("%s/%d", info.Scene.ID, info.Scene.Cycle)
		}
		children := "-"
		if info.ChildCount > 0 {
			children = fmt.Sprintf("%d", info.ChildCount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			info.SessionID, info.Status, scene, children,
			info.UpdatedAt.Format("2006-01-02 15:04"),
			util.TruncateString(info.Objective, 40))
	}
	return w.Flush()
}
