package jary

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const (
	REPORT_SENT_RESPONSE        = "Report sent."
	REPORT_RATE_LIMITED         = "You are sending reports too quickly, try again later."
	REPORTS_NOT_SET_RESPONSE    = "Reports are not configured for this server."
	ANONYMOUS_REPORTER          = "anonymous"
	REPORT_EMBED_COLOR          = 0xe67e22
	REPORT_LIMITER_IDLE_EXPIRES = 1 * time.Hour
)

type reporterLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// reportLimiter keeps one token bucket per reporting user.
type reportLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	perUser map[string]*reporterLimit
}

func newReportLimiter(perMinute float64, burst int) *reportLimiter {
	return &reportLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		perUser: map[string]*reporterLimit{},
	}
}

func (r *reportLimiter) Allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.perUser[userID]
	if !ok {
		entry = &reporterLimit{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.perUser[userID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Prune drops limiters for users who have not reported recently.
func (r *reportLimiter) Prune(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	pruned := 0
	for userID, entry := range r.perUser {
		if entry.lastSeen.Before(cutoff) {
			delete(r.perUser, userID)
			pruned++
		}
	}
	return pruned
}

func handleSetReports(i *discordgo.InteractionCreate, j *Jary) error {
	name, options, err := subcommand(i)
	if err != nil {
		return err
	}
	option, ok := findCommandOption(options, CHANNEL)
	if !ok {
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}
	channelID := option.ChannelValue(nil).ID

	var update func(gc *GuildConfig)
	switch name {
	case ADMIN_CHANNEL:
		update = func(gc *GuildConfig) { gc.ReportsAdminChannelID = &channelID }
	case REPORTS_CHANNEL:
		update = func(gc *GuildConfig) { gc.ReportsChannelID = &channelID }
	default:
		return fmt.Errorf("unknown set_reports subcommand %s", name)
	}

	if _, err := j.DB.UpdateGuildConfig(i.GuildID, update); err != nil {
		return err
	}
	return respond(j.DiscordSession, i, UPDATED_RESPONSE, true)
}

func reportEmbed(reporter string, content string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       fmt.Sprintf("Staff Feedback (%s)", reporter),
		Description: content,
		Color:       REPORT_EMBED_COLOR,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func handleReport(i *discordgo.InteractionCreate, j *Jary) error {
	user, err := interactionUser(i)
	if err != nil {
		return err
	}

	gc, err := j.DB.GuildConfig(i.GuildID)
	if err != nil {
		return err
	}
	if gc.ReportsAdminChannelID == nil {
		return respond(j.DiscordSession, i, REPORTS_NOT_SET_RESPONSE, true)
	}

	if !j.reportLimiter.Allow(user.ID) {
		return respond(j.DiscordSession, i, REPORT_RATE_LIMITED, true)
	}

	options := i.ApplicationCommandData().Options
	message, ok := findCommandOption(options, MESSAGE)
	if !ok {
		return respond(j.DiscordSession, i, BAD_SYNTAX_RESPONSE, true)
	}
	anonymous := true
	if option, ok := findCommandOption(options, ANONYMOUS); ok {
		anonymous = option.BoolValue()
	}

	reporter := ANONYMOUS_REPORTER
	if !anonymous {
		reporter = user.Username
	}

	if _, err := j.DiscordSession.ChannelMessageSendEmbed(
		*gc.ReportsAdminChannelID,
		reportEmbed(reporter, message.StringValue()),
	); err != nil {
		return fmt.Errorf("unable to send report: %w", err)
	}
	return respond(j.DiscordSession, i, REPORT_SENT_RESPONSE, true)
}

// relayReport forwards a message posted in the guild's reports channel to
// the admin channel without its author and removes the original.
func relayReport(j *Jary, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}

	gc, err := j.DB.GuildConfig(m.GuildID)
	if err != nil {
		log.Println("Unable to load guild config: ", err)
		return
	}
	if gc.ReportsChannelID == nil || *gc.ReportsChannelID != m.ChannelID {
		return
	}

	if gc.ReportsAdminChannelID != nil && m.Content != "" {
		if _, err := j.DiscordSession.ChannelMessageSendEmbed(
			*gc.ReportsAdminChannelID,
			reportEmbed(ANONYMOUS_REPORTER, m.Content),
		); err != nil {
			log.Println("Unable to relay report: ", err)
			return
		}
	}

	if err := j.DiscordSession.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		log.Println("Unable to delete relayed report: ", err)
	}
}
