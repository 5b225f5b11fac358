package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/config"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/pkg/fileutil"
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage savekit configuration",
	Long: `Manage the savekit configuration file.

Without a subcommand, shows the effective configuration.`,
	Example: `  # Show the effective configuration
  savekit config

  # Write a starter config file
  savekit config init

  See Also: savekit profile, savekit plugins`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a configuration file with the default settings so it can be
edited by hand. Refuses to overwrite an existing file.`,
	Example: `  savekit config init

  See Also: savekit config show`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration savekit is running with, after defaults,
the config file and SAVEKIT_* environment variables are merged.`,
	Example: `  savekit config show`,
	RunE: runConfigShow,
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	return runConfigInitWithWriter(os.Stdout)
}

func runConfigInitWithWriter(w io.Writer) error {
	path := config.DefaultConfigFile()

	if _, err := os.Stat(path); err == nil {
		return errors.NewUserError(
			errors.Newf("config file already exists at %s", path),
			"Edit it directly, or remove it first")
	}

	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteYAML(path, config.Default()); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	fmt.Fprintf(w, "%s✓ wrote %s%s\n", colorGreen, path, colorReset)
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	return runConfigShowWithWriter(os.Stdout)
}

func runConfigShowWithWriter(w io.Writer) error {
	cfg, err := config.Load(flags.GetConfigFlag())
	if err != nil {
		return errors.NewConfigError(err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	_, err = w.Write(out)
	return errors.Wrap(err, "writing output")
}
