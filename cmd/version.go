package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jarybot/jary"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the application",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s", jary.Version, jary.CommitSHA)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
