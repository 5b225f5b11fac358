package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/detect"
	"github.com/savekit/savekit/internal/errors"
)

var detectAdd bool

func init() {
	detectCmd.Flags().BoolVar(&detectAdd, "add", false, "add a profile for each detected game")
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect installed games from the plugin catalogs",
	Long: `Scan the loaded plugin catalogs for games installed on this machine.

A game counts as detected when one of its known save paths exists, or (on
Windows) when its registry key points at an existing install folder. Save
path matches are reported with higher confidence than registry matches.

Detection never changes anything on disk unless --add is given, in which
case a profile is created for each detected game that does not have one.`,
	Example: `  # See what savekit recognizes
  savekit detect

  # Create profiles for everything found
  savekit detect --add

  See Also: savekit plugins, savekit profile list`,
	RunE: runDetect,
}

func runDetect(_ *cobra.Command, _ []string) error {
	return runDetectWithWriter(os.Stdout)
}

func runDetectWithWriter(w io.Writer) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	svc := detect.NewService(app.Env)
	results := svc.Detect(app.Plugins.Snapshot())

	if len(results) == 0 {
		fmt.Fprintln(w, "No known games detected.")
		return nil
	}

	added := 0
	for _, r := range results {
		marker := colorGreen + "✓"
		if r.Confidence == detect.ConfidenceRegistry {
			marker = colorYellow + "~"
		}
		fmt.Fprintf(w, "%s %s%s %s(%s, %s)%s\n",
			marker, r.Descriptor.GameName, colorReset,
			colorGray, r.Confidence, r.SavePath, colorReset)

		if !detectAdd {
			continue
		}

		p := r.ProfileFor()
		if _, err := app.Profiles.Get(p.ID); err == nil {
			continue // already configured
		}
		if err := app.Profiles.Add(p); err != nil {
			return errors.Wrapf(err, "adding profile for %s", r.Descriptor.GameID)
		}
		fmt.Fprintf(w, "  added profile %s\n", p.ID)
		added++
	}

	if detectAdd && added > 0 {
		if err := app.SaveProfiles(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%d profile(s) added.\n", added)
	}

	return nil
}
