package commands

import "github.com/savekit/savekit/cmd/savekit/commands/archives"

func init() {
	rootCmd.AddCommand(archives.Cmd)
}
