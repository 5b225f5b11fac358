package profile

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/savekit/savekit/cmd/savekit/commands/flags"
	"github.com/savekit/savekit/internal/cli"
	"github.com/savekit/savekit/internal/pathutil"
)

func init() {
	Cmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <profile>",
	Short: "Show profile details",
	Long: `Show a single profile, including the expanded save path for this
machine and whether that folder currently exists.`,
	Example: `  savekit profile show terraria

  See Also: savekit profile list, savekit profile set`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(_ *cobra.Command, args []string) error {
	return runShowWithWriter(os.Stdout, args)
}

func runShowWithWriter(w io.Writer, args []string) error {
	app, err := cli.NewApp(flags.GetConfigFlag())
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.ResolveProfile(args[0])
	if err != nil {
		return err
	}

	expanded := pathutil.Expand(app.Env, p.SavePath)
	exists := "missing"
	if info, err := os.Stat(expanded); err == nil && info.IsDir() {
		exists = "exists"
	}

	fmt.Fprintf(w, "%s%s%s\n", colorCyan+colorBold, p.Name, colorReset)
	fmt.Fprintf(w, "  ID:               %s\n", p.ID)
	fmt.Fprintf(w, "  Save path:        %s\n", p.SavePath)
	fmt.Fprintf(w, "  Expanded:         %s %s(%s)%s\n", expanded, colorGray, exists, colorReset)
	fmt.Fprintf(w, "  Compression:      %v\n", p.Compress)
	fmt.Fprintf(w, "  Clear on restore: %v\n", p.ClearOnRestore)
	if p.PluginID != "" {
		fmt.Fprintf(w, "  Plugin:           %s\n", p.PluginID)
	}
	return nil
}
