package board

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordgo has no typed event for this dispatch
const reactionRemoveEmojiEvent = "MESSAGE_REACTION_REMOVE_EMOJI"

// Register subscribes the aggregator to reaction and message events.
// The returned func removes every handler it added.
func (a *Aggregator) Register(bus Bus) func() {
	removeFuncs := []func(){
		bus.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
			a.onReaction(r.MessageReaction)
		}),
		bus.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
			a.onReaction(r.MessageReaction)
		}),
		bus.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemoveAll) {
			a.onReaction(r.MessageReaction)
		}),
		bus.AddHandler(func(_ *discordgo.Session, e *discordgo.Event) {
			if e.Type != reactionRemoveEmojiEvent {
				return
			}
			var r discordgo.MessageReaction
			if err := json.Unmarshal(e.RawData, &r); err != nil {
				log.Println("Unable to decode reaction event: ", err)
				return
			}
			a.onReaction(&r)
		}),
		bus.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			if err := a.AutoReact(m.Message); err != nil {
				log.Println("Unable to react to message: ", err)
			}
		}),
	}

	return func() {
		for _, remove := range removeFuncs {
			remove()
		}
	}
}

func (a *Aggregator) onReaction(r *discordgo.MessageReaction) {
	if r == nil || r.GuildID == "" {
		return
	}
	ref := Ref{GuildID: r.GuildID, ChannelID: r.ChannelID, MessageID: r.MessageID}
	err := a.Update(context.Background(), ref)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoThreshold), errors.Is(err, ErrNoEmoji), errors.Is(err, ErrNoBoardChannel):
		log.Printf("Skipping board update for %s: %s\n", ref, err)
	case errors.Is(err, ErrBoardChannel):
		log.Println("Attempted to process a board message!")
	case errors.Is(err, ErrClosed):
		log.Printf("Dropping board update for %s during shutdown\n", ref)
	default:
		log.Printf("Board update for %s failed: %s\n", ref, err)
	}
}

// AutoReact reacts with the tracking emoji to messages that mention
// its name in their text.
func (a *Aggregator) AutoReact(m *discordgo.Message) error {
	if m == nil || m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return nil
	}

	settings, err := a.store.BoardSettings(m.GuildID)
	if err != nil {
		return err
	}
	if settings.EmojiID == "" {
		return nil
	}

	emoji, err := a.session.GuildEmoji(m.GuildID, settings.EmojiID)
	if err != nil {
		return err
	}
	if emoji.Name == "" || !strings.Contains(m.Content, emoji.Name) {
		return nil
	}
	return a.session.MessageReactionAdd(m.ChannelID, m.ID, emoji.APIName())
}
