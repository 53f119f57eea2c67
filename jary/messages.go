package jary

import (
	"github.com/bwmarrin/discordgo"
)

func messageCreate(m *discordgo.MessageCreate, j *Jary) {
	// Ignore all messages created by the bot itself
	if state := j.DiscordSession.GetState(); state != nil && state.User != nil && m.Author != nil &&
		m.Author.ID == state.User.ID {
		return
	}

	relayReport(j, m)
}
