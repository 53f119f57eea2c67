package jary

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

const (
	BOARD               = "board"
	SET_REPORTS         = "set_reports"
	REPORT              = "report"
	SECTOR_TIME         = "sectortime"
	SECTOR_TIME_CHANNEL = "sectortime_channel"
	SECTOR_TIME_CURRENT = "sectortime_current"

	// board subcommands
	EMOJI       = "emoji"
	CHANNEL     = "channel"
	COUNT       = "count"
	ALLOW_BOARD = "allow_board"
	SETTINGS    = "settings"

	// set_reports subcommands
	ADMIN_CHANNEL   = "admin_channel"
	REPORTS_CHANNEL = "reports_channel"

	VALUE      = "value"
	MESSAGE    = "message"
	MESSAGE_ID = "message_id"
	ANONYMOUS  = "anonymous"
)

const ERROR_RESPONSE = "Error processing command"

var adminPermission int64 = discordgo.PermissionAdministrator

var guildOnly = false

func slashCommands() []*discordgo.ApplicationCommand {
	channelOption := func(description string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         CHANNEL,
			Description:  description,
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     BOARD,
			Description:              "Configure the reaction board",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        EMOJI,
					Description: "Set the custom emoji that is counted",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        VALUE,
							Description: "emoji id or the emoji itself",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        CHANNEL,
					Description: "Set the channel board messages are posted to",
					Options: []*discordgo.ApplicationCommandOption{
						channelOption("board channel"),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        COUNT,
					Description: "Set how many reactions put a message on the board",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        VALUE,
							Description: "reaction threshold",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        ALLOW_BOARD,
					Description: "Toggle counting reactions on messages in the board channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        SETTINGS,
					Description: "Show the current board settings",
				},
			},
		},
		{
			Name:                     SET_REPORTS,
			Description:              "Configure staff reports",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        ADMIN_CHANNEL,
					Description: "Channel reports are sent to",
					Options: []*discordgo.ApplicationCommandOption{
						channelOption("admin channel"),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        REPORTS_CHANNEL,
					Description: "Channel whose messages are relayed as anonymous reports",
					Options: []*discordgo.ApplicationCommandOption{
						channelOption("reports channel"),
					},
				},
			},
		},
		{
			Name:         REPORT,
			Description:  "Send a report to the staff.",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        MESSAGE,
					Description: "what happened",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        ANONYMOUS,
					Description: "hide your name from staff. Defaults to true",
					Required:    false,
				},
			},
		},
		{
			Name:        SECTOR_TIME,
			Description: "Displays the current time in FSC",
		},
		{
			Name:                     SECTOR_TIME_CHANNEL,
			Description:              "Sets the channel to post the sector time in",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				channelOption("clock channel"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        MESSAGE_ID,
					Description: "existing message of the bot to keep updated instead of posting a new one",
					Required:    false,
				},
			},
		},
		{
			Name:                     SECTOR_TIME_CURRENT,
			Description:              "Shows where the sector time clock is posted",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &guildOnly,
		},
	}
}

func initSlashCommands(
	dg DiscordSession,
	guildID string,
) ([]*discordgo.ApplicationCommand, error) {
	commands := slashCommands()
	for _, command := range commands {
		if _, err := dg.ApplicationCommandCreate(dg.GetState().User.ID, guildID, command); err != nil {
			return nil, fmt.Errorf("error unable to create command %s: %w", command.Name, err)
		}
	}
	return commands, nil
}

func onCommand(i *discordgo.InteractionCreate, j *Jary) {
	log.Println(i.ApplicationCommandData().Name)
	var err error
	switch i.ApplicationCommandData().Name {
	case BOARD:
		err = handleBoardCommand(i, j)
	case SET_REPORTS:
		err = handleSetReports(i, j)
	case REPORT:
		err = handleReport(i, j)
	case SECTOR_TIME:
		err = handleSectorTime(i, j)
	case SECTOR_TIME_CHANNEL:
		err = handleSectorTimeChannel(i, j)
	case SECTOR_TIME_CURRENT:
		err = handleSectorTimeCurrent(i, j)
	default:
		log.Println("recieved unrecognized command")
		err = respond(j.DiscordSession, i, "Recieved unrecognized command", true)
	}
	if err != nil {
		handleSlashCommandError(j.DiscordSession, i, err)
	}
}

func handleSlashCommandError(
	dg DiscordSession,
	i *discordgo.InteractionCreate,
	err error,
) {
	log.Println("Error processing command: ", err)
	if err := respond(dg, i, ERROR_RESPONSE, true); err != nil {
		log.Printf("Error responding to slash command: %s\n", err)
	}
}

func respond(dg DiscordSession, i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Content: content,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return dg.InteractionRespond(i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
}

func findCommandOption(
	options []*discordgo.ApplicationCommandInteractionDataOption,
	name string,
) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, option := range options {
		if option.Name == name {
			return option, true
		}
	}
	return nil, false
}

// subcommand returns the invoked subcommand and its options.
func subcommand(i *discordgo.InteractionCreate) (string, []*discordgo.ApplicationCommandInteractionDataOption, error) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 || options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", nil, fmt.Errorf("missing subcommand for %s", i.ApplicationCommandData().Name)
	}
	return options[0].Name, options[0].Options, nil
}

func interactionUser(i *discordgo.InteractionCreate) (*discordgo.User, error) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User, nil
	} else if i.User != nil {
		return i.User, nil
	}
	return nil, fmt.Errorf("could not get user from interaction object")
}

func DeleteSlashCommands(dg DiscordSession, guildID string) error {
	appID := dg.GetState().User.ID
	appCommands, err := dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("could not get application commands: %w", err)
	}

	for _, appCommand := range appCommands {
		log.Println("Deleting command", appCommand.Name)
		if err := dg.ApplicationCommandDelete(appID, guildID, appCommand.ID); err != nil {
			return fmt.Errorf("could not delete command %s: %w", appCommand.Name, err)
		}
	}
	return nil
}
