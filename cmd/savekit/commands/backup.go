package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/engine"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/profile"
)

var backupAll bool

func init() {
	backupCmd.Flags().BoolVar(&backupAll, "all", false, "back up every profile")
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup [profile]",
	Short: "Create a backup archive for a profile",
	Long: `Create a timestamped zip archive of a profile's save folder.

The archive lands under <storage root>/<game>/ and is named after the game
and the moment of the backup. If the profile is linked to a plugin, the
plugin's pre- and post-backup hooks run around the archive step.`,
	Example: `  # Back up one profile
  savekit backup terraria

  # Back up every profile
  savekit backup --all

  See Also: savekit archives list, savekit restore`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackup,
}

func runBackup(_ *cobra.Command, args []string) error {
	return runBackupWithWriter(os.Stdout, args)
}

func runBackupWithWriter(w io.Writer, args []string) error {
	if backupAll == (len(args) == 1) {
		return errors.NewUserError(nil, "specify exactly one profile, or --all")
	}

	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	var targets []profile.Profile
	if backupAll {
		targets = app.Profiles.All()
		if len(targets) == 0 {
			fmt.Fprintln(w, "No profiles configured. Add one with: savekit profile add")
			return nil
		}
	} else {
		p, err := app.ResolveProfile(args[0])
		if err != nil {
			return err
		}
		targets = []profile.Profile{p}
	}

	failed := 0
	for _, p := range targets {
		res, err := app.Engine.Backup(p)
		if err != nil {
			failed++
			step, _ := engine.FailedStep(err)
			fmt.Fprintf(w, "%s✗ %s: %v%s\n", colorRed, p.Name, err, colorReset)
			if step == engine.StepResolve {
				fmt.Fprintf(w, "  %sCheck the save path with: savekit profile show %s%s\n",
					colorGray, p.ID, colorReset)
			}
			continue
		}
		fmt.Fprintf(w, "%s✓ %s: %s%s %s(%s)%s\n",
			colorGreen, p.Name, res.Archive.Path, colorReset,
			colorGray, res.Duration.Round(timeRounding), colorReset)

		if app.Config.Retention > 0 {
			removed, err := app.Store.Prune(p.Name, archive.KindRegular, app.Config.Retention)
			if err != nil {
				fmt.Fprintf(w, "  %s! pruning old archives: %v%s\n", colorYellow, err, colorReset)
			} else if removed > 0 {
				fmt.Fprintf(w, "  %spruned %d old archive(s)%s\n", colorGray, removed, colorReset)
			}
		}
	}

	if failed > 0 {
		return errors.NewSystemError(
			errors.Newf("%d of %d backups failed", failed, len(targets)), "")
	}
	return nil
}
