package commands

import profilecmd "github.com/savekit/savekit/cmd/savekit/commands/profile"

func init() {
	rootCmd.AddCommand(profilecmd.Cmd)
}
