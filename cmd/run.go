package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"jarybot/jary"
)

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Connects to discord and runs the bot until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		j, err := jary.NewJary(cfg)
		if err != nil {
			return err
		}
		log.Println("Initializing...")
		return j.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
