// Package archives provides CLI commands for inspecting and pruning
// backup archives.
package archives

import "github.com/spf13/cobra"

// Color constants for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorGray   = "\033[90m"
)

// Cmd is the root archives command.
var Cmd = &cobra.Command{
	Use:   "archives",
	Short: "Inspect and prune backup archives",
	Long: `Inspect and prune the zip archives savekit has written.

Archives live under <storage root>/<game>/, newest first, with safety
snapshots in a Safety/ subfolder. Deleting an archive is permanent.`,
	Example: `  # List archives for every profile
  savekit archives list

  # List archives for one profile
  savekit archives list terraria

  # Delete a specific archive
  savekit archives delete terraria 2026-08-27_21-15-03

  See Also:
    savekit archives list   - List archives
    savekit archives delete - Delete an archive`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
