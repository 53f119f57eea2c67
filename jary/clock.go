package jary

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"jarybot/board"
	"jarybot/sectortime"
)

const (
	SECTOR_TIME_TITLE   = "Current Sector Time"
	CLOCK_NOT_SET       = "No sector time channel is set."
	CLOCK_NO_MESSAGE    = "Could not find that message in the channel."
	SECTOR_TIME_COLOR   = 0x3498db
	CLOCK_REFRESH_LIMIT = 4
)

func sectorTimeEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       SECTOR_TIME_TITLE,
		Description: sectortime.Format(now),
		Color:       SECTOR_TIME_COLOR,
	}
}

func handleSectorTime(i *discordgo.InteractionCreate, j *Jary) error {
	return j.DiscordSession.InteractionRespond(i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{sectorTimeEmbed(time.Now())},
			},
		})
}

func handleSectorTimeChannel(i *discordgo.InteractionCreate, j *Jary) error {
	option, ok := findCommandOption(i.ApplicationCommandData().Options, CHANNEL)
	if !ok {
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}
	channelID := option.ChannelValue(nil).ID

	var messageID *string
	if option, ok := findCommandOption(i.ApplicationCommandData().Options, MESSAGE_ID); ok {
		id, err := parseSnowflake(strings.TrimSpace(option.StringValue()))
		if err != nil {
			return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
		}
		if _, err := j.DiscordSession.ChannelMessage(channelID, id); err != nil {
			if board.IsNotFound(err) {
				return respond(j.DiscordSession, i, CLOCK_NO_MESSAGE, true)
			}
			return fmt.Errorf("unable to fetch clock message: %w", err)
		}
		messageID = &id
	}

	gc, err := j.DB.UpdateGuildConfig(i.GuildID, func(gc *GuildConfig) {
		gc.ClockChannelID = &channelID
		gc.ClockMessageID = messageID
	})
	if err != nil {
		return err
	}

	if err := refreshClock(j, gc, time.Now()); err != nil {
		return err
	}
	return respond(j.DiscordSession, i, UPDATED_RESPONSE, true)
}

func handleSectorTimeCurrent(i *discordgo.InteractionCreate, j *Jary) error {
	gc, err := j.DB.GuildConfig(i.GuildID)
	if err != nil {
		return err
	}
	if gc.ClockChannelID == nil {
		return respond(j.DiscordSession, i, CLOCK_NOT_SET, true)
	}

	content := fmt.Sprintf("Channel: <#%s>", *gc.ClockChannelID)
	if gc.ClockMessageID != nil {
		content += fmt.Sprintf("\nMessage: %s", board.JumpURL(board.Ref{
			GuildID:   gc.GuildID,
			ChannelID: *gc.ClockChannelID,
			MessageID: *gc.ClockMessageID,
		}))
	}
	return respond(j.DiscordSession, i, content, true)
}

// refreshClocks edits every guild's clock message.
func refreshClocks(ctx context.Context, j *Jary) error {
	gcs, err := j.DB.ClockGuilds()
	if err != nil {
		return fmt.Errorf("unable to load clock guilds: %w", err)
	}

	now := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(CLOCK_REFRESH_LIMIT)
	for _, gc := range gcs {
		gc := gc
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := refreshClock(j, gc, now); err != nil {
				log.Printf("Unable to refresh clock for guild %s: %s\n", gc.GuildID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// refreshClock edits the guild's clock message, posting a new one when
// none is stored or the old one was deleted.
func refreshClock(j *Jary, gc *GuildConfig, now time.Time) error {
	if gc.ClockChannelID == nil {
		return nil
	}
	channelID := *gc.ClockChannelID
	embed := sectorTimeEmbed(now)

	if gc.ClockMessageID != nil {
		_, err := j.DiscordSession.ChannelMessageEditEmbed(channelID, *gc.ClockMessageID, embed)
		if err == nil {
			return nil
		}
		if !board.IsNotFound(err) {
			return fmt.Errorf("unable to edit clock message: %w", err)
		}
		log.Printf("Clock message in %s is gone, reposting\n", channelID)
	}

	msg, err := j.DiscordSession.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return fmt.Errorf("unable to send clock message: %w", err)
	}
	_, err = j.DB.UpdateGuildConfig(gc.GuildID, func(stored *GuildConfig) {
		stored.ClockMessageID = &msg.ID
	})
	gc.ClockMessageID = &msg.ID
	return err
}
