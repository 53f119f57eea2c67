package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jarybot/jary"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Manage registered slash commands",
}

var deleteCommandsCmd = &cobra.Command{
	Use:   "delete",
	Short: "Deletes every slash command registered for the bot (guild scoped when guild_id is set)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		session, err := jary.NewSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		if err := session.Open(); err != nil {
			return fmt.Errorf("error unable to open discord session %w", err)
		}
		defer session.Close()

		return jary.DeleteSlashCommands(session, cfg.GuildID)
	},
}

func init() {
	commandsCmd.AddCommand(deleteCommandsCmd)
	rootCmd.AddCommand(commandsCmd)
}
