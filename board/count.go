package board

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// countReactions returns how many distinct users reacted with the
// tracking emoji across all given messages. A user reacting on both a
// source and its board message is counted once.
func (a *Aggregator) countReactions(emojiID string, messages ...*discordgo.Message) (int, error) {
	users := make(map[string]struct{})
	for _, message := range messages {
		if message == nil {
			continue
		}
		for _, reaction := range message.Reactions {
			if reaction.Emoji == nil || reaction.Emoji.ID == "" {
				continue
			}
			if reaction.Emoji.ID != emojiID {
				continue
			}
			reactors, err := a.reactors(message, reaction.Emoji)
			if err != nil {
				return 0, err
			}
			for _, userID := range reactors {
				users[userID] = struct{}{}
			}
		}
	}
	log.Printf("Found %d reactions\n", len(users))
	return len(users), nil
}

func (a *Aggregator) reactors(message *discordgo.Message, emoji *discordgo.Emoji) ([]string, error) {
	var ids []string
	after := ""
	for {
		users, err := a.session.MessageReactions(
			message.ChannelID,
			message.ID,
			emoji.APIName(),
			reactorPageSize,
			"",
			after,
		)
		if err != nil {
			return nil, fmt.Errorf("unable to list reactions on %s: %w", message.ID, err)
		}
		for _, user := range users {
			ids = append(ids, user.ID)
		}
		if len(users) < reactorPageSize {
			return ids, nil
		}
		after = users[len(users)-1].ID
	}
}
