// Package profile provides CLI commands for managing game profiles.
package profile

import "github.com/spf13/cobra"

// Color constants for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Cmd is the root profile command.
var Cmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage game profiles",
	Long: `Manage the game profiles savekit backs up.

A profile names a game and points at its save folder. Save paths are stored
in contracted form (%USERPROFILE%, %APPDATA%, ...) so the profile list works
across machines and user accounts. Profiles can also be created automatically
with "savekit detect --add".`,
	Example: `  # Add a profile
  savekit profile add --id terraria --name Terraria \
    --path "~/.local/share/Terraria/Worlds"

  # List profiles
  savekit profile list

  # Show one profile
  savekit profile show terraria

  # Change a field
  savekit profile set terraria --no-clear

  # Remove a profile
  savekit profile remove terraria

  See Also:
    savekit profile add    - Add a profile
    savekit profile list   - List profiles
    savekit profile show   - Show profile details
    savekit profile set    - Change profile fields
    savekit profile remove - Remove a profile`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
