package profile

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
)

func init() {
	Cmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove <profile>",
	Short: "Remove a game profile",
	Long: `Remove a profile from the profile list.

Archives already written for the game are left in place; only the profile
entry goes away.`,
	Example: `  savekit profile remove terraria

  See Also: savekit archives delete`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func runRemove(_ *cobra.Command, args []string) error {
	return runRemoveWithWriter(os.Stdout, args)
}

func runRemoveWithWriter(w io.Writer, args []string) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.ResolveProfile(args[0])
	if err != nil {
		return err
	}

	if err := app.Profiles.Remove(p.ID); err != nil {
		return errors.Wrapf(err, "removing %s", p.ID)
	}
	if err := app.SaveProfiles(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s✓ removed %s%s %s(archives kept)%s\n",
		colorGreen, p.Name, colorReset, colorGray, colorReset)
	return nil
}
