package archives

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/archive"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/profile"
)

var (
	listJSON   bool
	listSafety bool
)

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listSafety, "safety", false, "List safety snapshots instead")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [profile]",
	Short: "List backup archives",
	Long: `List backup archives grouped by profile, most recent first.

By default regular archives are shown; use --safety for the pre-restore
snapshots.`,
	Example: `  # List archives for every profile
  savekit archives list

  # List archives for one profile
  savekit archives list terraria

  # List safety snapshots
  savekit archives list terraria --safety

  # Output as JSON
  savekit archives list --json

  See Also:
    savekit restore         - Restore from an archive
    savekit archives delete - Delete an archive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

// listOutput represents the JSON output for archives list.
type listOutput struct {
	Profile  string       `json:"profile"`
	Game     string       `json:"game"`
	Archives []infoOutput `json:"archives"`
}

// infoOutput represents a single archive in JSON output.
type infoOutput struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
}

func runList(_ *cobra.Command, args []string) error {
	return runListWithWriter(os.Stdout, args)
}

func runListWithWriter(w io.Writer, args []string) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	var targets []profile.Profile
	if len(args) == 1 {
		p, err := app.ResolveProfile(args[0])
		if err != nil {
			return err
		}
		targets = []profile.Profile{p}
	} else {
		targets = app.Profiles.All()
	}

	kind := archive.KindRegular
	if listSafety {
		kind = archive.KindSafety
	}

	if listJSON {
		return outputListJSON(w, app, targets, kind)
	}
	return outputListTabular(w, app, targets, kind)
}

func outputListJSON(w io.Writer, app *cli.App, targets []profile.Profile, kind archive.Kind) error {
	output := make([]listOutput, 0, len(targets))

	for _, p := range targets {
		list, err := app.Store.List(p.Name, kind)
		if err != nil {
			return errors.Wrapf(err, "listing archives for %s", p.Name)
		}

		infos := make([]infoOutput, len(list))
		for i, a := range list {
			infos[i] = infoOutput{
				Timestamp: a.Timestamp,
				Kind:      string(a.Kind),
				Path:      a.Path,
				SizeBytes: fileSize(a.Path),
			}
		}

		output = append(output, listOutput{
			Profile:  p.ID,
			Game:     p.Name,
			Archives: infos,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(output), "encoding output")
}

func outputListTabular(w io.Writer, app *cli.App, targets []profile.Profile, kind archive.Kind) error {
	hasArchives := false

	for i, p := range targets {
		list, err := app.Store.List(p.Name, kind)
		if err != nil {
			return errors.Wrapf(err, "listing archives for %s", p.Name)
		}

		if len(list) > 0 {
			hasArchives = true
		}

		// Blank line between profiles (but not before first)
		if i > 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "%sGame: %s%s\n", colorCyan+colorBold, p.Name, colorReset)

		if len(list) == 0 {
			fmt.Fprintf(w, "  %s(no archives)%s\n", colorGray, colorReset)
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  %sCREATED%s\t%sKIND%s\t%sSIZE%s\n",
			colorBold, colorReset,
			colorBold, colorReset,
			colorBold, colorReset)

		for _, a := range list {
			fmt.Fprintf(tw, "  %s%s%s\t%s\t%s\n",
				colorGreen, a.Timestamp.Format("2006-01-02 15:04:05"), colorReset,
				a.Kind,
				humanSize(fileSize(a.Path)))
		}
		tw.Flush()
	}

	if !hasArchives {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No archives yet. Create one with: savekit backup <profile>")
	}

	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n/div >= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
