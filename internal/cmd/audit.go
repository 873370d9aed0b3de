package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
)

var (
	auditLimit int
	auditJSON  bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the forced-action audit trail",
	Long: `Show audit entries for operations that overrode normal lock
ownership: forced releases and stale-lock cleanups. The trail is
append-only; this command never modifies it.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum entries to show (0 shows all)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	recorder := audit.NewFileRecorder(cfg.DataDir())
	entries, err := recorder.Tail(auditLimit)
	if err != nil {
		return fmt.Errorf("failed to read audit trail: %w", err)
	}

	if auditJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), entries)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No audit entries recorded.")
		return nil
	}

	for _, e := range entries {
		actor := e.Actor
		if actor == "" {
			actor = e.Hostname
		}
		fmt.Fprintf(out, "%s  %-21s  %-16s  by %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.SpecID, actor)
		if e.Detail != "" {
			fmt.Fprintf(out, "    %s\n", e.Detail)
		}
	}
	return nil
}
