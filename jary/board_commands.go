package jary

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"jarybot/components"
)

const (
	UPDATED_RESPONSE      = "Updated value"
	BAD_SYNTAX_RESPONSE   = "Failed to update value, check your syntax"
	TOGGLE_BUTTON_LABEL   = "Toggle board reactions"
	UNSET_SETTING_DISPLAY = "`unset`"
)

var customEmojiPattern = regexp.MustCompile(`^<a?:\w+:(\d+)>$`)

// parseEmojiID accepts a raw emoji id or a rendered custom emoji.
func parseEmojiID(value string) (string, error) {
	value = strings.TrimSpace(value)
	if match := customEmojiPattern.FindStringSubmatch(value); match != nil {
		return match[1], nil
	}
	return parseSnowflake(value)
}

func parseSnowflake(value string) (string, error) {
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		return "", fmt.Errorf("invalid id %q", value)
	}
	return value, nil
}

func handleBoardCommand(i *discordgo.InteractionCreate, j *Jary) error {
	name, options, err := subcommand(i)
	if err != nil {
		return err
	}

	switch name {
	case EMOJI:
		return setBoardEmoji(i, j, options)
	case CHANNEL:
		return setBoardChannel(i, j, options)
	case COUNT:
		return setBoardCount(i, j, options)
	case ALLOW_BOARD:
		return toggleAllowBoard(i, j)
	case SETTINGS:
		return showBoardSettings(i, j)
	}
	return fmt.Errorf("unknown board subcommand %s", name)
}

func setBoardEmoji(i *discordgo.InteractionCreate, j *Jary, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	option, ok := findCommandOption(options, VALUE)
	if !ok {
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}
	emojiID, err := parseEmojiID(option.StringValue())
	if err != nil {
		log.Println("Rejected board emoji: ", err)
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}

	if _, err := j.DB.UpdateGuildConfig(i.GuildID, func(gc *GuildConfig) {
		gc.BoardEmojiID = &emojiID
	}); err != nil {
		return err
	}
	return respond(j.DiscordSession, i, UPDATED_RESPONSE, true)
}

func setBoardChannel(i *discordgo.InteractionCreate, j *Jary, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	option, ok := findCommandOption(options, CHANNEL)
	if !ok {
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}
	channelID := option.ChannelValue(nil).ID

	if _, err := j.DB.UpdateGuildConfig(i.GuildID, func(gc *GuildConfig) {
		gc.BoardChannelID = &channelID
	}); err != nil {
		return err
	}
	return respond(j.DiscordSession, i, UPDATED_RESPONSE, true)
}

func setBoardCount(i *discordgo.InteractionCreate, j *Jary, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	option, ok := findCommandOption(options, VALUE)
	if !ok {
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}
	count := int(option.IntValue())
	if count <= 0 {
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}

	if _, err := j.DB.UpdateGuildConfig(i.GuildID, func(gc *GuildConfig) {
		gc.BoardThreshold = &count
	}); err != nil {
		return err
	}
	return respond(j.DiscordSession, i, UPDATED_RESPONSE, true)
}

func allowBoardMessage(allowed bool) string {
	if allowed {
		return "now allowing board reactions"
	}
	return "no longer allowing board reactions"
}

func toggleAllowBoard(i *discordgo.InteractionCreate, j *Jary) error {
	gc, err := j.DB.UpdateGuildConfig(i.GuildID, func(gc *GuildConfig) {
		gc.AllowBoardReactions = !gc.AllowBoardReactions
	})
	if err != nil {
		return err
	}
	return respond(j.DiscordSession, i, allowBoardMessage(gc.AllowBoardReactions), true)
}

func boardSettingsContent(gc *GuildConfig) string {
	emoji := UNSET_SETTING_DISPLAY
	if gc.BoardEmojiID != nil {
		emoji = fmt.Sprintf("`%s`", *gc.BoardEmojiID)
	}
	channel := UNSET_SETTING_DISPLAY
	if gc.BoardChannelID != nil {
		channel = fmt.Sprintf("<#%s>", *gc.BoardChannelID)
	}
	threshold := UNSET_SETTING_DISPLAY
	if gc.BoardThreshold != nil {
		threshold = strconv.Itoa(*gc.BoardThreshold)
	}
	reactions := "not allowed"
	if gc.AllowBoardReactions {
		reactions = "allowed"
	}

	return fmt.Sprintf(
		"**Board settings**\nEmoji: %s\nChannel: %s\nThreshold: %s\nReactions in board channel: %s",
		emoji, channel, threshold, reactions,
	)
}

func showBoardSettings(i *discordgo.InteractionCreate, j *Jary) error {
	gc, err := j.DB.GuildConfig(i.GuildID)
	if err != nil {
		return err
	}

	guildID := i.GuildID
	toggle := j.ComponentHandler.WithButton(
		discordgo.Button{
			Label: TOGGLE_BUTTON_LABEL,
			Style: discordgo.SecondaryButton,
		},
		func(click *discordgo.InteractionCreate) {
			gc, err := j.DB.UpdateGuildConfig(guildID, func(gc *GuildConfig) {
				gc.AllowBoardReactions = !gc.AllowBoardReactions
			})
			if err != nil {
				log.Println("Unable to toggle board reactions: ", err)
				return
			}
			expireComponent(j, click.MessageComponentData().CustomID)
			content := boardSettingsContent(gc)
			if _, err := j.DiscordSession.InteractionResponseEdit(click.Interaction, &discordgo.WebhookEdit{
				Content: &content,
			}); err != nil {
				log.Println("Unable to edit settings message: ", err)
			}
		},
	)

	expireComponent(j, toggle.CustomID)

	return j.DiscordSession.InteractionRespond(i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    boardSettingsContent(gc),
				Flags:      discordgo.MessageFlagsEphemeral,
				Components: []discordgo.MessageComponent{components.ButtonRow(toggle)},
			},
		})
}

// expireComponent (re)schedules removal of the component's callback
// PanelExpiry from now.
func expireComponent(j *Jary, customID string) {
	err := j.Scheduler.AddComponentExpiryJob(customID, j.Config.Board.PanelExpiry, func() {
		j.ComponentHandler.Remove(customID)
	})
	if err != nil {
		log.Println("Unable to schedule component expiry, removing now: ", err)
		j.ComponentHandler.Remove(customID)
	}
}
