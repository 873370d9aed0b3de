package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
)

// Config represents the complete Stagehand configuration.
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Lock      LockConfig      `mapstructure:"lock"`
	Session   SessionConfig   `mapstructure:"session"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// WorkspaceConfig controls where Stagehand keeps its data.
type WorkspaceConfig struct {
	// Root is the workspace root directory (default: current directory)
	Root string `mapstructure:"root"`
	// DataDir is the data directory, relative to Root unless absolute
	// (default: ".stagehand")
	DataDir string `mapstructure:"data_dir"`
}

// LockConfig controls spec lock behavior.
type LockConfig struct {
	// DefaultTimeoutHours is the staleness timeout applied to locks
	// acquired without an explicit timeout (default: 4, clamped to > 0)
	DefaultTimeoutHours float64 `mapstructure:"default_timeout_hours"`
	// Owner is the default lock owner name. Empty falls back to the
	// machine hostname.
	Owner string `mapstructure:"owner"`
	// Version is recorded on lock records for compatibility checks
	Version string `mapstructure:"version"`
}

// SessionConfig controls session record behavior.
type SessionConfig struct {
	// Tool is the default tool name recorded on new sessions (default: "stagehand")
	Tool string `mapstructure:"tool"`
	// BackupOnRewrite snapshots session.json before every rewrite (default: false)
	BackupOnRewrite bool `mapstructure:"backup_on_rewrite"`
}

// BackupConfig controls backup retention.
type BackupConfig struct {
	// MaxAgeHours is the prune threshold for old backups (default: 168,
	// clamped to >= 0)
	MaxAgeHours float64 `mapstructure:"max_age_hours"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// FileEnabled writes logs to <data_dir>/logs in addition to discarding
	// them (default: true)
	FileEnabled bool `mapstructure:"file_enabled"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:    ".",
			DataDir: ".stagehand",
		},
		Lock: LockConfig{
			DefaultTimeoutHours: 4,
			Owner:               "",
			Version:             "",
		},
		Session: SessionConfig{
			Tool:            "stagehand",
			BackupOnRewrite: false,
		},
		Backup: BackupConfig{
			MaxAgeHours: 168, // one week
		},
		Logging: LoggingConfig{
			Level:       "info",
			FileEnabled: true,
			MaxSizeMB:   10,
			MaxBackups:  3,
		},
	}
}

// DataDir returns the resolved data directory.
func (c *Config) DataDir() string {
	if filepath.IsAbs(c.Workspace.DataDir) {
		return c.Workspace.DataDir
	}
	return filepath.Join(c.Workspace.Root, c.Workspace.DataDir)
}

// LogsDir returns the log directory under the data directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir(), "logs")
}

// SpecConfigPath returns the per-spec override file for a spec.
func (c *Config) SpecConfigPath(specID string) string {
	return filepath.Join(c.DataDir(), lockfile.SpecsDirName, specID, "config.yaml")
}

// DefaultTimeout returns the lock staleness timeout as a duration.
func (c *LockConfig) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutHours * float64(time.Hour))
}

// MaxAge returns the backup retention threshold as a duration.
func (c *BackupConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours * float64(time.Hour))
}

// Normalize clamps out-of-range values back to their defaults. Stagehand
// prefers running on a corrected configuration over refusing to run: a bad
// timeout in a config file should not brick every lock command.
func (c *Config) Normalize() {
	defaults := Default()

	if c.Workspace.Root == "" {
		c.Workspace.Root = defaults.Workspace.Root
	}
	if c.Workspace.DataDir == "" {
		c.Workspace.DataDir = defaults.Workspace.DataDir
	}
	if c.Lock.DefaultTimeoutHours <= 0 {
		c.Lock.DefaultTimeoutHours = defaults.Lock.DefaultTimeoutHours
	}
	if c.Session.Tool == "" {
		c.Session.Tool = defaults.Session.Tool
	}
	if c.Backup.MaxAgeHours < 0 {
		c.Backup.MaxAgeHours = 0
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaults.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = defaults.Logging.MaxBackups
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	applyDefaults(viper.GetViper(), Default())
}

// applyDefaults registers every key of c as a default on v.
func applyDefaults(v *viper.Viper, c *Config) {
	// Workspace defaults
	v.SetDefault("workspace.root", c.Workspace.Root)
	v.SetDefault("workspace.data_dir", c.Workspace.DataDir)

	// Lock defaults
	v.SetDefault("lock.default_timeout_hours", c.Lock.DefaultTimeoutHours)
	v.SetDefault("lock.owner", c.Lock.Owner)
	v.SetDefault("lock.version", c.Lock.Version)

	// Session defaults
	v.SetDefault("session.tool", c.Session.Tool)
	v.SetDefault("session.backup_on_rewrite", c.Session.BackupOnRewrite)

	// Backup defaults
	v.SetDefault("backup.max_age_hours", c.Backup.MaxAgeHours)

	// Logging defaults
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.file_enabled", c.Logging.FileEnabled)
	v.SetDefault("logging.max_size_mb", c.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and clamps
// it into range.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Get returns the current configuration (convenience function).
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ForSpec loads the configuration with a spec's overrides layered on top.
// Keys the override file does not set inherit the base configuration; a
// missing override file yields the base unchanged.
func ForSpec(specID string) (*Config, error) {
	base, err := Load()
	if err != nil {
		return nil, err
	}
	return base.ForSpec(specID)
}

// ForSpec layers the spec's config.yaml over this configuration.
func (c *Config) ForSpec(specID string) (*Config, error) {
	path := c.SpecConfigPath(specID)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			merged := *c
			return &merged, nil
		}
		return nil, err
	}

	v := viper.New()
	applyDefaults(v, c)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stagehand")
	}
	// Fall back to ~/.config/stagehand
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stagehand"
	}
	return filepath.Join(home, ".config", "stagehand")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}
