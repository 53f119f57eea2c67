package board

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

const JUMP_URL = "https://discord.com/channels/%s/%s/%s"

func JumpURL(ref Ref) string {
	return fmt.Sprintf(JUMP_URL, ref.GuildID, ref.ChannelID, ref.MessageID)
}

func boardEmbed(ref Ref, source *discordgo.Message, emoji *discordgo.Emoji, count int) *discordgo.MessageEmbed {
	jumpURL := JumpURL(ref)
	description := fmt.Sprintf("%d - %s\n\n", count, emoji.MessageFormat())
	description += source.ContentWithMentionsReplaced()
	description += fmt.Sprintf("\n\n[Jump To](%s)", jumpURL)

	embed := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Description: description,
		Timestamp:   source.Timestamp.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("<#%s> | %s", ref.ChannelID, jumpURL),
		},
	}

	if source.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    displayName(source),
			IconURL: source.Author.AvatarURL(""),
		}
	}

	if len(source.Attachments) > 0 {
		embed.Image = &discordgo.MessageEmbedImage{
			URL: source.Attachments[0].URL,
		}
	}
	return embed
}

func displayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
