package board

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrNoThreshold    = errors.New("no reaction threshold configured")
	ErrNoEmoji        = errors.New("no tracking emoji configured")
	ErrNoBoardChannel = errors.New("no board channel configured")
	// returned when a message in the board channel is not allowed to be boarded
	ErrBoardChannel = errors.New("attempted to process a message in the board channel")
	ErrClosed       = errors.New("board aggregator is shut down")
)

// Ref identifies the source message an update was requested for.
// GuildID comes from the triggering event since fetched messages
// do not always carry it.
type Ref struct {
	GuildID   string
	ChannelID string
	MessageID string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s/%s", r.GuildID, r.ChannelID, r.MessageID)
}

// TrackedMessage maps a source message to the board message mirroring it.
type TrackedMessage struct {
	GuildID        string
	ChannelID      string
	MessageID      string
	BoardChannelID string
	BoardMessageID string
}

func (tm *TrackedMessage) Source() Ref {
	return Ref{GuildID: tm.GuildID, ChannelID: tm.ChannelID, MessageID: tm.MessageID}
}

// Settings is a guild's board configuration. Empty ids and a zero
// threshold mean the value was never set.
type Settings struct {
	EmojiID             string
	ChannelID           string
	Threshold           int
	AllowBoardReactions bool
}

// Ready reports whether every value an update needs has been configured.
func (s Settings) Ready() error {
	switch {
	case s.Threshold <= 0:
		return ErrNoThreshold
	case s.EmojiID == "":
		return ErrNoEmoji
	case s.ChannelID == "":
		return ErrNoBoardChannel
	}
	return nil
}

// Store persists guild settings and the source -> board message map.
// Lookups return a nil TrackedMessage and a nil error when nothing is stored.
type Store interface {
	BoardSettings(guildID string) (Settings, error)
	TrackedMessage(guildID, messageID string) (*TrackedMessage, error)
	TrackedMessageByBoard(guildID, boardMessageID string) (*TrackedMessage, error)
	SaveTrackedMessage(tm *TrackedMessage) error
	DeleteTrackedMessage(guildID, messageID string) error
}

// Session is the subset of discordgo.Session the aggregator calls.
type Session interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	GuildEmoji(guildID, emojiID string, options ...discordgo.RequestOption) (*discordgo.Emoji, error)
}

// Bus registers typed gateway event handlers, see discordgo.Session.AddHandler.
type Bus interface {
	AddHandler(handler interface{}) func()
}
