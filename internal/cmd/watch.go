package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of locks, scenes, and activity",
	Long: `Open a terminal dashboard showing held locks, active scene sessions,
and a feed of workspace activity. The dashboard refreshes automatically
when coordination files change. It is read-only and never modifies
workspace state.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !cmdutil.StdoutIsTerminal() {
		return fmt.Errorf("watch requires a terminal; stdout is not a TTY")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cmdutil.NewLogger(cfg)
	defer func() { _ = logger.Close() }()

	return tui.Run(tui.Options{
		DataDir: cfg.DataDir(),
		Logger:  logger,
	})
}
