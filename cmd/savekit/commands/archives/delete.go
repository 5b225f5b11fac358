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

var deleteSafety bool

func init() {
	deleteCmd.Flags().BoolVar(&deleteSafety, "safety", false, "Delete a safety snapshot instead")
	Cmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <profile> <timestamp>",
	Short: "Delete a backup archive",
	Long: `Delete a single archive by its timestamp. This is permanent.

The timestamp must match the CREATED column of "savekit archives list".`,
	Example: `  # Delete a regular archive
  savekit archives delete terraria 2026-08-27_21-15-03

  # Delete a safety snapshot
  savekit archives delete terraria 2026-08-27_21-15-03 --safety

  See Also: savekit archives list`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

func runDelete(_ *cobra.Command, args []string) error {
	return runDeleteWithWriter(os.Stdout, args)
}

func runDeleteWithWriter(w io.Writer, args []string) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.ResolveProfile(args[0])
	if err != nil {
		return err
	}

	kind := archive.KindRegular
	if deleteSafety {
		kind = archive.KindSafety
	}

	list, err := app.Store.List(p.Name, kind)
	if err != nil {
		return errors.Wrapf(err, "listing archives for %s", p.Name)
	}

	for _, a := range list {
		if a.Timestamp.Format(archive.TimestampLayout) != args[1] {
			continue
		}
		if err := app.Store.Delete(a); err != nil {
			return errors.Wrapf(err, "deleting %s", a.Path)
		}
		fmt.Fprintf(w, "%s✓ deleted %s%s\n", colorGreen, a.Path, colorReset)
		return nil
	}

	return errors.NewUserError(
		errors.Newf("no archive matching %q for %s", args[1], p.Name),
		"Run: savekit archives list "+p.ID)
}
