package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List game profiles",
	Long: `List all configured game profiles, sorted by name.

Save paths are shown in their stored contracted form.`,
	Example: `  # List profiles
  savekit profile list

  # As JSON
  savekit profile list --json

  See Also: savekit profile add, savekit profile show`,
	RunE: runList,
}

func runList(_ *cobra.Command, _ []string) error {
	return runListWithWriter(os.Stdout)
}

func runListWithWriter(w io.Writer) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	profiles := app.Profiles.All()

	if listJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(profiles), "encoding output")
	}

	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles configured.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Add one with: savekit profile add")
		fmt.Fprintln(w, "Or detect installed games with: savekit detect --add")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sID%s\t%sNAME%s\t%sSAVE PATH%s\t%sPLUGIN%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	for _, p := range profiles {
		pluginID := p.PluginID
		if pluginID == "" {
			pluginID = "-"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\t%s\n",
			colorGreen, p.ID, colorReset,
			p.Name,
			p.SavePath,
			pluginID)
	}
	return errors.Wrap(tw.Flush(), "flushing output")
}
