package jary

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// FOR TESTING
type MockDiscordSession struct {
	mu sync.Mutex
	// channelID -> message ids that currently exist
	channelMessages map[string][]string
	embeds          map[string]*discordgo.MessageEmbed
	responses       []*discordgo.InteractionResponse
	responseEdits   []*discordgo.WebhookEdit
	deleted         []string
	commands        []*discordgo.ApplicationCommand
	handlers        []interface{}
	nextID          int
	failSend        bool
	State           *discordgo.State
}

func newMockDiscordSession() *MockDiscordSession {
	return &MockDiscordSession{
		channelMessages: make(map[string][]string),
		embeds:          make(map[string]*discordgo.MessageEmbed),
		nextID:          9000,
		State: &discordgo.State{
			Ready: discordgo.Ready{
				User: &discordgo.User{
					ID: BOT_ID,
				},
			},
		},
	}
}

func notFoundError() error {
	return &discordgo.RESTError{
		Response: &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
		},
	}
}

func (m *MockDiscordSession) Open() error {
	return nil
}

func (m *MockDiscordSession) Close() error {
	return nil
}

func (m *MockDiscordSession) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {}
}

func (m *MockDiscordSession) GetState() *discordgo.State {
	return m.State
}

func (m *MockDiscordSession) newMessage(channelID string) *discordgo.Message {
	m.nextID++
	id := fmt.Sprint(m.nextID)
	m.channelMessages[channelID] = append(m.channelMessages[channelID], id)
	return &discordgo.Message{ID: id, ChannelID: channelID}
}

func (m *MockDiscordSession) hasMessage(channelID, messageID string) bool {
	for _, id := range m.channelMessages[channelID] {
		if id == messageID {
			return true
		}
	}
	return false
}

// removeMessage simulates a message deleted outside the bot.
func (m *MockDiscordSession) removeMessage(channelID, messageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.channelMessages[channelID][:0]
	for _, id := range m.channelMessages[channelID] {
		if id != messageID {
			ids = append(ids, id)
		}
	}
	m.channelMessages[channelID] = ids
}

func (m *MockDiscordSession) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasMessage(channelID, messageID) {
		return nil, notFoundError()
	}
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (m *MockDiscordSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return nil, fmt.Errorf("send failed")
	}
	msg := m.newMessage(channelID)
	msg.Content = content
	return msg, nil
}

func (m *MockDiscordSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return nil, fmt.Errorf("send failed")
	}
	msg := m.newMessage(channelID)
	m.embeds[msg.ID] = embed
	return msg, nil
}

func (m *MockDiscordSession) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasMessage(channelID, messageID) {
		return nil, notFoundError()
	}
	m.embeds[messageID] = embed
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (m *MockDiscordSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasMessage(edit.Channel, edit.ID) {
		return nil, notFoundError()
	}
	if edit.Embeds != nil && len(*edit.Embeds) > 0 {
		m.embeds[edit.ID] = (*edit.Embeds)[0]
	}
	return &discordgo.Message{ID: edit.ID, ChannelID: edit.Channel}, nil
}

func (m *MockDiscordSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, messageID)
	m.mu.Unlock()
	m.removeMessage(channelID, messageID)
	return nil
}

func (m *MockDiscordSession) MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error) {
	return nil, nil
}

func (m *MockDiscordSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	return nil
}

func (m *MockDiscordSession) GuildEmoji(guildID, emojiID string, options ...discordgo.RequestOption) (*discordgo.Emoji, error) {
	return &discordgo.Emoji{ID: emojiID, Name: "emoji"}, nil
}

func (m *MockDiscordSession) InteractionRespond(
	interaction *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
	options ...discordgo.RequestOption,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	return nil
}

func (m *MockDiscordSession) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseEdits = append(m.responseEdits, newresp)
	return nil, nil
}

func (m *MockDiscordSession) ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *cmd
	created.ID = fmt.Sprintf("cmd-%d", len(m.commands))
	created.ApplicationID = appID
	created.GuildID = guildID
	m.commands = append(m.commands, &created)
	return &created, nil
}

func (m *MockDiscordSession) ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*discordgo.ApplicationCommand(nil), m.commands...), nil
}

func (m *MockDiscordSession) ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	commands := m.commands[:0]
	for _, command := range m.commands {
		if command.ID != cmdID {
			commands = append(commands, command)
		}
	}
	m.commands = commands
	return nil
}

func (m *MockDiscordSession) lastResponse() *discordgo.InteractionResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil
	}
	return m.responses[len(m.responses)-1]
}
