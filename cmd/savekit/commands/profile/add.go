package profile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/errors"
	"github.com/savekit/savekit/internal/pathutil"
	"github.com/savekit/savekit/internal/profile"
)

var (
	addID         string
	addName       string
	addPath       string
	addPlugin     string
	addNoCompress bool
	addNoClear    bool
)

func init() {
	addCmd.Flags().StringVar(&addID, "id", "", "profile identifier (defaults to a slug of the name)")
	addCmd.Flags().StringVar(&addName, "name", "", "game name (required)")
	addCmd.Flags().StringVar(&addPath, "path", "", "save folder path (required)")
	addCmd.Flags().StringVar(&addPlugin, "plugin", "", "plugin game id to attach")
	addCmd.Flags().BoolVar(&addNoCompress, "no-compress", false, "store archive entries uncompressed")
	addCmd.Flags().BoolVar(&addNoClear, "no-clear", false, "do not empty the save folder before restore")
	Cmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a game profile",
	Long: `Add a game profile.

The save path may be absolute, contain ~ or environment tokens, or be a
file:// URL pasted from a file manager. Absolute paths are contracted
against the current environment before they are stored, so the profile
stays portable.`,
	Example: `  # Absolute path, stored contracted
  savekit profile add --name Terraria --path "$HOME/.local/share/Terraria"

  # Already-contracted path, stored as-is
  savekit profile add --name "Hollow Knight" \
    --path "%APPDATA%/../LocalLow/Team Cherry/Hollow Knight"

  See Also: savekit profile list, savekit detect`,
	RunE: runAdd,
}

func runAdd(_ *cobra.Command, _ []string) error {
	return runAddWithWriter(os.Stdout)
}

func runAddWithWriter(w io.Writer) error {
	if addName == "" || addPath == "" {
		return errors.NewUserError(nil, "both --name and --path are required")
	}

	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	id := addID
	if id == "" {
		id = slugify(addName)
	}

	savePath := pathutil.CleanInput(addPath)
	if filepath.IsAbs(savePath) {
		savePath = pathutil.Contract(app.Env, savePath)
	}

	p := profile.Profile{
		ID:             id,
		Name:           addName,
		SavePath:       savePath,
		Compress:       !addNoCompress,
		ClearOnRestore: !addNoClear,
		PluginID:       addPlugin,
	}

	if err := app.Profiles.Add(p); err != nil {
		return errors.NewUserError(err, "Run: savekit profile list")
	}
	if err := app.SaveProfiles(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s✓ added %s%s %s(%s)%s\n",
		colorGreen, p.Name, colorReset, colorGray, p.SavePath, colorReset)
	return nil
}

// slugify turns a display name into a stable profile id.
func slugify(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		case c == ' ', c == '-', c == '_':
			if len(out) > 0 && out[len(out)-1] != '_' {
				out = append(out, '_')
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '_' {
		out = out[:len(out)-1]
	}
	return string(out)
}
