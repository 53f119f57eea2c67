package jary

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"jarybot/board"
)

// discordgo.Session interface wrapping for modularity and testing
// implements methods used in this project
type DiscordSession interface {
	// message, reaction and emoji calls made by the board aggregator
	board.Session

	Open() error
	Close() error
	AddHandler(handler interface{}) func()

	// see discordgo.Session.ChannelMessageEditEmbed
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)

	// see discordgo.Session.ChannelMessageSendEmbed
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)

	// see discordgo.Session.InteractionRespond()
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)

	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error

	// wraps discordgo.Session.State
	GetState() *discordgo.State
}

// wrapper
type DiscordBot struct {
	*discordgo.Session
}

func NewDiscordBot(session *discordgo.Session) *DiscordBot {
	return &DiscordBot{Session: session}
}

// NewSession creates a gateway session with the intents the cogs need.
func NewSession(token string) (*DiscordBot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("unable to get discord client: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentMessageContent
	session.State.TrackChannels = true

	return NewDiscordBot(session), nil
}

func (bot *DiscordBot) GetState() *discordgo.State {
	return bot.State
}
