package profile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/pathutil"
)

var (
	setName     string
	setPath     string
	setPlugin   string
	setCompress bool
	setClear    bool
)

func init() {
	setCmd.Flags().StringVar(&setName, "name", "", "new game name")
	setCmd.Flags().StringVar(&setPath, "path", "", "new save folder path")
	setCmd.Flags().StringVar(&setPlugin, "plugin", "", "plugin game id (empty string detaches)")
	setCmd.Flags().BoolVar(&setCompress, "compress", true, "compress archive entries")
	setCmd.Flags().BoolVar(&setClear, "clear", true, "empty the save folder before restore")
	Cmd.AddCommand(setCmd)
}

var setCmd = &cobra.Command{
	Use:   "set <profile>",
	Short: "Change profile fields",
	Long: `Change fields of an existing profile. Only flags that are given
change; everything else keeps its value.`,
	Example: `  # Point at a new save folder
  savekit profile set terraria --path "~/backups/terraria-saves"

  # Keep the save folder as-is during restores
  savekit profile set terraria --clear=false

  See Also: savekit profile show`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	return runSetWithWriter(os.Stdout, cmd, args)
}

func runSetWithWriter(w io.Writer, cmd *cobra.Command, args []string) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.ResolveProfile(args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("name") {
		p.Name = setName
	}
	if cmd.Flags().Changed("path") {
		savePath := pathutil.CleanInput(setPath)
		if filepath.IsAbs(savePath) {
			savePath = pathutil.Contract(app.Env, savePath)
		}
		p.SavePath = savePath
	}
	if cmd.Flags().Changed("plugin") {
		p.PluginID = setPlugin
	}
	if cmd.Flags().Changed("compress") {
		p.Compress = setCompress
	}
	if cmd.Flags().Changed("clear") {
		p.ClearOnRestore = setClear
	}

	if err := app.Profiles.Update(p); err != nil {
		return err
	}
	if err := app.SaveProfiles(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s✓ updated %s%s\n", colorGreen, p.ID, colorReset)
	return nil
}
