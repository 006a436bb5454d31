package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X tgbridge/cmd.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tgbridge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tgbridge %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
