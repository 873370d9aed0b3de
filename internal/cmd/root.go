package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stagehand-sh/stagehand/internal/cmd/lock"
	"github.com/stagehand-sh/stagehand/internal/cmd/scene"
	"github.com/stagehand-sh/stagehand/internal/cmd/session"
	"github.com/stagehand-sh/stagehand/internal/cmd/spec"
	"github.com/stagehand-sh/stagehand/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Coordination layer for agent-driven spec work",
	Long: `Stagehand coordinates multiple coding agents working on specs in a
shared workspace. It tracks per-spec advisory locks, session records,
scene cycles, and the bindings between them, all as plain files under
the workspace data directory.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/stagehand/config.yaml)")

	lock.Register(rootCmd)
	session.Register(rootCmd)
	scene.Register(rootCmd)
	spec.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	// Bound here rather than in init so the binding survives a viper reset
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/stagehand")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("STAGEHAND")
	// Replace dots with underscores for nested keys in env vars
	// e.g., STAGEHAND_LOCK_DEFAULT_TIMEOUT_HOURS for lock.default_timeout_hours
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
