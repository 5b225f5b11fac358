package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
)

var (
	restoreLatest bool
	restoreSafety bool
	restoreYes    bool
)

func init() {
	restoreCmd.Flags().BoolVar(&restoreLatest, "latest", false, "restore the most recent archive")
	restoreCmd.Flags().BoolVar(&restoreSafety, "safety", false, "choose from safety archives instead")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore <profile> [timestamp]",
	Short: "Restore a backup archive into the save folder",
	Long: `Restore an archive into a profile's save folder.

Before anything is overwritten, the current contents of the save folder are
packed into a safety archive under <storage root>/<game>/Safety/. If that
snapshot cannot be written, the restore aborts and the save folder is left
untouched. A restore can therefore always be undone with --safety.

With no timestamp argument, the archive is picked interactively. Use
--latest to skip the picker and take the most recent one.`,
	Example: `  # Pick an archive interactively
  savekit restore terraria

  # Restore the most recent archive without picking
  savekit restore terraria --latest

  # Restore a specific archive by timestamp
  savekit restore terraria 2026-08-27_21-15-03

  # Undo a restore from the safety snapshot
  savekit restore terraria --safety --latest

  See Also: savekit archives list, savekit backup`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	return runRestoreWithIO(cmd.OutOrStdout(), cmd.InOrStdin(), args)
}

func runRestoreWithIO(w io.Writer, in io.Reader, args []string) error {
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
	if restoreSafety {
		kind = archive.KindSafety
	}

	archives, err := app.Store.List(p.Name, kind)
	if err != nil {
		return errors.Wrapf(err, "listing archives for %s", p.Name)
	}
	if len(archives) == 0 {
		fmt.Fprintf(w, "No archives found for %s. Create one with: savekit backup %s\n", p.Name, p.ID)
		return nil
	}

	chosen, err := chooseArchive(archives, args)
	if err != nil {
		return err
	}
	if chosen == nil {
		// Picker aborted.
		return nil
	}

	if !restoreYes {
		target := pathutil.Expand(app.Env, p.SavePath)
		ok, err := confirm(w, in, fmt.Sprintf(
			"Restore %s into %s? The current contents will be snapshotted first. [y/N] ",
			chosen.Timestamp.Format(archive.TimestampLayout), target))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	res, err := app.Engine.Restore(p, *chosen)
	if err != nil {
		return errors.Wrapf(err, "restoring %s", p.Name)
	}

	fmt.Fprintf(w, "%s✓ restored %s into %s%s %s(%s)%s\n",
		colorGreen, p.Name, res.RestorePath, colorReset,
		colorGray, res.Duration.Round(timeRounding), colorReset)
	if res.SafetyArchive != nil {
		fmt.Fprintf(w, "  safety snapshot: %s\n", res.SafetyArchive.Path)
	}
	return nil
}

// chooseArchive selects from the newest-first archive list: by timestamp
// argument, by --latest, or interactively. A nil result with nil error
// means the user aborted the picker.
func chooseArchive(archives []archive.Archive, args []string) (*archive.Archive, error) {
	if len(args) == 2 {
		want := args[1]
		for i := range archives {
			if archives[i].Timestamp.Format(archive.TimestampLayout) == want ||
				strings.Contains(archives[i].Path, want) {
				return &archives[i], nil
			}
		}
		return nil, errors.NewUserError(
			errors.Newf("no archive matching %q", want),
			"Run: savekit archives list")
	}

	if restoreLatest {
		return &archives[0], nil
	}

	idx, err := fuzzyfinder.Find(
		archives,
		func(i int) string {
			return fmt.Sprintf("%s  %s", archives[i].Timestamp.Format("2006-01-02 15:04:05"), archives[i].Kind)
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			a := archives[i]
			return fmt.Sprintf("Game: %s\nKind: %s\nCreated: %s\n\n%s",
				a.GameName, a.Kind,
				a.Timestamp.Format("2006-01-02 15:04:05"),
				a.Path)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "interactive archive selection failed")
	}
	return &archives[idx], nil
}

func confirm(w io.Writer, in io.Reader, prompt string) (bool, error) {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
