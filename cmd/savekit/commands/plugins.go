package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
)

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List loaded game plugins",
	Long: `List the game plugins currently loaded, with their source.

Built-in plugins ship with savekit; catalog plugins come from JSON or TOML
files in the plugin directory. Units that failed to load are listed at the
end with the reason; a bad unit never blocks the others.`,
	Example: `  savekit plugins

  See Also: savekit detect, savekit config show`,
	RunE: runPlugins,
}

func runPlugins(_ *cobra.Command, _ []string) error {
	return runPluginsWithWriter(os.Stdout)
}

func runPluginsWithWriter(w io.Writer) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	snap := app.Plugins.Snapshot()
	descs := snap.All()

	if len(descs) == 0 {
		fmt.Fprintln(w, "No plugins loaded.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%sGAME ID%s\t%sNAME%s\t%sSAVE PATHS%s\t%sSOURCE%s\n",
			colorBold, colorReset,
			colorBold, colorReset,
			colorBold, colorReset,
			colorBold, colorReset)
		for _, d := range descs {
			fmt.Fprintf(tw, "%s%s%s\t%s\t%d\t%s\n",
				colorGreen, d.GameID, colorReset,
				d.GameName,
				len(d.SavePaths),
				truncate(d.Source, 50))
		}
		if err := tw.Flush(); err != nil {
			return errors.Wrap(err, "flushing output")
		}
	}

	failed := 0
	for _, r := range snap.Report() {
		if r.Err == nil {
			continue
		}
		if failed == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%sFailed units:%s\n", colorYellow+colorBold, colorReset)
		}
		failed++
		fmt.Fprintf(w, "  %s: %v\n", r.Unit, r.Err)
	}

	return nil
}
