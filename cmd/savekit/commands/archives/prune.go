package archives

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
)

var pruneKeep int

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "Number of newest archives to keep (defaults to the configured retention)")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune <profile>",
	Short: "Delete old backup archives beyond a retention count",
	Long: `Delete the oldest archives for a profile, keeping only the newest N.

The count comes from --keep, or from the "retention" config setting when
the flag is omitted. Safety snapshots are never pruned.`,
	Example: `  # Keep the five newest archives
  savekit archives prune terraria --keep 5

  # Use the retention count from the config file
  savekit archives prune terraria

  See Also: savekit archives list, savekit archives delete`,
	Args: cobra.ExactArgs(1),
	RunE: runPrune,
}

func runPrune(_ *cobra.Command, args []string) error {
	return runPruneWithWriter(os.Stdout, args)
}

func runPruneWithWriter(w io.Writer, args []string) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.ResolveProfile(args[0])
	if err != nil {
		return err
	}

	keep := pruneKeep
	if keep == 0 {
		keep = app.Config.Retention
	}
	if keep < 1 {
		return errors.NewUserError(nil,
			"pass --keep, or set \"retention\" in the config file")
	}

	removed, err := app.Store.Prune(p.Name, archive.KindRegular, keep)
	if err != nil {
		return errors.Wrapf(err, "pruning archives for %s", p.Name)
	}

	if removed == 0 {
		fmt.Fprintf(w, "Nothing to prune: %s has at most %d archive(s).\n", p.Name, keep)
		return nil
	}
	fmt.Fprintf(w, "%s✓ pruned %d archive(s), kept the %d newest%s\n",
		colorGreen, removed, keep, colorReset)
	return nil
}
