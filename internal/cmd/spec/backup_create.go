package spec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stagehand-sh/stagehand/internal/backup"
	"github.com/stagehand-sh/stagehand/internal/cmd/cmdutil"
	"github.com/stagehand-sh/stagehand/internal/config"
	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
)

var backupCreateCmd = &cobra.Command{
	Use:   "create <spec-id> [<file>]",
	Short: "Back up a file from the spec directory",
	Long: `Copy a file from the spec's directory into its backups/ directory
with a timestamped suffix. The file defaults to config.yaml.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBackupCreate,
}

var backupCreateJSON bool

func init() {
	backupCreateCmd.Flags().BoolVar(&backupCreateJSON, "json", false, "output the created backup as JSON")
}

// RegisterBackupCreateCmd registers the create command with the given parent command.
func RegisterBackupCreateCmd(parent *cobra.Command) {
	parent.AddCommand(backupCreateCmd)
}

// specKeeper builds the backup keeper for a spec's directory.
func specKeeper(cfg *config.Config, specID string) *backup.Keeper {
	specDir := lockfile.NewCodec(cfg.DataDir()).SpecDir(specID)
	return backup.NewKeeper(filepath.Join(specDir, backup.DirName))
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	specID := args[0]
	name := "config.yaml"
	if len(args) == 2 {
		name = args[1]
	}
	// Restore relocates backups next to the backups/ directory, so only
	// direct children of the spec directory can be backed up.
	if strings.ContainsAny(name, `/\`) {
		return errors.NewValidationError("file", name, "must be a file name in the spec directory, not a path")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	keeper := specKeeper(cfg, specID)
	b, err := keeper.Create(filepath.Join(lockfile.NewCodec(cfg.DataDir()).SpecDir(specID), name))
	if err != nil {
		return err
	}

	if backupCreateJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), b)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created backup %s (%d bytes)\n", b.ID, b.Size)
	return nil
}
