// Package config provides configuration management for savekit using Viper.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
)

// AppName is the application name used for config file naming.
const AppName = "savekit"

// Storage root modes.
const (
	// StorageModeCWD stores archives under ./backups in the working directory.
	StorageModeCWD = "cwd"

	// StorageModeFixed stores archives under a user-chosen path, which may
	// be contracted.
	StorageModeFixed = "fixed"
)

// Config represents the top-level configuration structure.
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	// StorageMode selects where archives live: "cwd" or "fixed".
	StorageMode string `mapstructure:"storage_mode" yaml:"storage_mode"`

	// StoragePath is the fixed storage root (contracted form allowed).
	// Ignored unless StorageMode is "fixed".
	StoragePath string `mapstructure:"storage_path" yaml:"storage_path"`

	// ProfilesFile is the JSON file holding the profile list.
	ProfilesFile string `mapstructure:"profiles_file" yaml:"profiles_file"`

	// PluginDir is scanned for declarative plugin catalogs.
	PluginDir string `mapstructure:"plugin_dir" yaml:"plugin_dir"`

	// VarsFile is an optional env-format file of extra path tokens.
	VarsFile string `mapstructure:"vars_file" yaml:"vars_file"`

	// HistoryDB is the SQLite operation log location.
	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`

	// Retention caps how many regular archives are kept per game.
	// After a successful backup the oldest archives beyond this count are
	// pruned. 0 disables pruning. Safety archives are never pruned.
	Retention int `mapstructure:"retention" yaml:"retention"`
}

// ConfigDir returns the savekit config directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the savekit data directory.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultConfigFile returns the default config file path.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Version:      1,
		StorageMode:  StorageModeCWD,
		ProfilesFile: filepath.Join(ConfigDir(), "profiles.json"),
		PluginDir:    filepath.Join(ConfigDir(), "plugins"),
		HistoryDB:    filepath.Join(DataDir(), "history.db"),
	}
}

// Init initializes Viper with defaults and search paths.
// Call once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(ConfigDir())

	viper.SetEnvPrefix("SAVEKIT")
	viper.AutomaticEnv()

	def := Default()
	viper.SetDefault("version", def.Version)
	viper.SetDefault("storage_mode", def.StorageMode)
	viper.SetDefault("storage_path", "")
	viper.SetDefault("profiles_file", def.ProfilesFile)
	viper.SetDefault("plugin_dir", def.PluginDir)
	viper.SetDefault("vars_file", "")
	viper.SetDefault("history_db", def.HistoryDB)
	viper.SetDefault("retention", 0)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches the default locations and falls back to
// defaults when no file is found.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If the user specified a path, a missing file is an error.
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &cfg, nil
}

// StorageRoot resolves the archive storage root for the current settings.
// In fixed mode the configured path is expanded against env; otherwise the
// root is ./backups under the working directory.
func (c *Config) StorageRoot(env pathutil.Env) (string, error) {
	if c.StorageMode == StorageModeFixed && c.StoragePath != "" {
		return pathutil.Expand(env, c.StoragePath), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolving working directory")
	}
	return filepath.Join(cwd, "backups"), nil
}

// Env builds the path environment snapshot, merging the vars file when
// configured. A missing vars file is not an error.
func (c *Config) Env() (pathutil.Env, error) {
	env := pathutil.Snapshot()
	if c.VarsFile == "" {
		return env, nil
	}
	if _, err := os.Stat(c.VarsFile); os.IsNotExist(err) {
		return env, nil
	}
	return env.WithVarsFile(c.VarsFile)
}
