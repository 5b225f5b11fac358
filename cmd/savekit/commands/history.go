package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries to show")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [profile]",
	Short: "Show the operation log",
	Long: `Show past backup and restore operations, most recent first.

Failures record the pipeline step that aborted, so a failed restore shows
whether it died resolving the save path, writing the safety snapshot, or
extracting the archive.`,
	Example: `  # Recent operations across all profiles
  savekit history

  # Operations for one profile
  savekit history terraria -n 5

  See Also: savekit backup, savekit restore`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(_ *cobra.Command, args []string) error {
	return runHistoryWithWriter(os.Stdout, args)
}

func runHistoryWithWriter(w io.Writer, args []string) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	if app.History == nil {
		return errors.NewSystemError(
			errors.New("operation history is unavailable"),
			"Check the history_db path with: savekit config show")
	}

	profileID := ""
	if len(args) == 1 {
		p, err := app.ResolveProfile(args[0])
		if err != nil {
			return err
		}
		profileID = p.ID
	}

	records, err := app.History.List(profileID, historyLimit)
	if err != nil {
		return errors.Wrap(err, "reading history")
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No operations recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sWHEN%s\t%sOP%s\t%sPROFILE%s\t%sRESULT%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	for _, r := range records {
		result := colorGreen + "ok" + colorReset
		if !r.Succeeded() {
			result = fmt.Sprintf("%sfailed (%s): %s%s",
				colorRed, r.FailedStep, truncate(r.Error, 60), colorReset)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Kind,
			r.ProfileID,
			result)
	}
	return errors.Wrap(tw.Flush(), "flushing output")
}
