package board

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	BOT_ID           = "BOT"
	GUILD_ID         = "GUILD"
	SOURCE_CHANNEL   = "SOURCE_CHANNEL"
	BOARD_CHANNEL    = "BOARD_CHANNEL"
	EMOJI_ID         = "1001"
	EMOJI_NAME       = "bluejary"
	OTHER_EMOJI_ID   = "2002"
	OTHER_EMOJI_NAME = "nope"
)

// FOR TESTING
type fakeSession struct {
	mu sync.Mutex
	// channelID/messageID -> message
	messages map[string]*discordgo.Message
	// channelID/messageID -> emoji api name -> user ids
	reactions map[string]map[string][]string
	emojis    map[string]*discordgo.Emoji
	edits     map[string][]*discordgo.MessageEmbed
	sent      []*discordgo.Message
	deleted   []string
	nextID    int
	// slows down message fetches to widen race windows
	fetchDelay time.Duration
	fetches    int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		messages:  make(map[string]*discordgo.Message),
		reactions: make(map[string]map[string][]string),
		emojis: map[string]*discordgo.Emoji{
			EMOJI_ID:       {ID: EMOJI_ID, Name: EMOJI_NAME},
			OTHER_EMOJI_ID: {ID: OTHER_EMOJI_ID, Name: OTHER_EMOJI_NAME},
		},
		edits:  make(map[string][]*discordgo.MessageEmbed),
		nextID: 5000,
	}
}

func key(channelID, messageID string) string {
	return channelID + "/" + messageID
}

func notFound() error {
	return &discordgo.RESTError{
		Response: &http.Response{
			Status:     "404 Not Found",
			StatusCode: http.StatusNotFound,
		},
	}
}

func (f *fakeSession) addMessage(m *discordgo.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[key(m.ChannelID, m.ID)] = m
}

func (f *fakeSession) react(channelID, messageID string, emoji *discordgo.Emoji, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(channelID, messageID)
	if f.reactions[k] == nil {
		f.reactions[k] = make(map[string][]string)
	}
	name := emoji.APIName()
	for _, id := range f.reactions[k][name] {
		if id == userID {
			return
		}
	}
	f.reactions[k][name] = append(f.reactions[k][name], userID)
}

func (f *fakeSession) unreact(channelID, messageID string, emoji *discordgo.Emoji, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(channelID, messageID)
	name := emoji.APIName()
	users := f.reactions[k][name]
	for i, id := range users {
		if id == userID {
			f.reactions[k][name] = append(users[:i], users[i+1:]...)
			return
		}
	}
}

// boardMessages returns the messages currently in the board channel.
func (f *fakeSession) boardMessages() []*discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*discordgo.Message
	for _, m := range f.messages {
		if m.ChannelID == BOARD_CHANNEL {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSession) lastEdit(messageID string) *discordgo.MessageEmbed {
	f.mu.Lock()
	defer f.mu.Unlock()
	edits := f.edits[messageID]
	if len(edits) == 0 {
		return nil
	}
	return edits[len(edits)-1]
}

func (f *fakeSession) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSession) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.fetchDelay > 0 {
		time.Sleep(f.fetchDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	m, ok := f.messages[key(channelID, messageID)]
	if !ok {
		return nil, notFound()
	}
	out := *m
	out.Reactions = nil
	names := make([]string, 0, len(f.reactions[key(channelID, messageID)]))
	for name := range f.reactions[key(channelID, messageID)] {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		users := f.reactions[key(channelID, messageID)][name]
		if len(users) == 0 {
			continue
		}
		out.Reactions = append(out.Reactions, &discordgo.MessageReactions{
			Count: len(users),
			Emoji: emojiFromAPIName(name),
		})
	}
	return &out, nil
}

func emojiFromAPIName(name string) *discordgo.Emoji {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ':' {
			return &discordgo.Emoji{Name: name[:i], ID: name[i+1:]}
		}
	}
	return &discordgo.Emoji{Name: name}
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := &discordgo.Message{
		ID:        fmt.Sprint(f.nextID),
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: BOT_ID, Bot: true},
	}
	f.messages[key(channelID, m.ID)] = m
	f.sent = append(f.sent, m)
	return m, nil
}

func (f *fakeSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[key(edit.Channel, edit.ID)]
	if !ok {
		return nil, notFound()
	}
	if edit.Content != nil {
		m.Content = *edit.Content
	}
	if edit.Embeds != nil {
		m.Embeds = *edit.Embeds
		for _, embed := range *edit.Embeds {
			f.edits[edit.ID] = append(f.edits[edit.ID], embed)
		}
	}
	return m, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[key(channelID, messageID)]; !ok {
		return notFound()
	}
	delete(f.messages, key(channelID, messageID))
	delete(f.reactions, key(channelID, messageID))
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := append([]string(nil), f.reactions[key(channelID, messageID)][emojiID]...)
	sort.Strings(ids)
	var users []*discordgo.User
	for _, id := range ids {
		if afterID != "" && id <= afterID {
			continue
		}
		users = append(users, &discordgo.User{ID: id})
		if len(users) == limit {
			break
		}
	}
	return users, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	k := key(channelID, messageID)
	if _, ok := f.messages[k]; !ok {
		f.mu.Unlock()
		return notFound()
	}
	f.mu.Unlock()
	f.react(channelID, messageID, emojiFromAPIName(emojiID), BOT_ID)
	return nil
}

func (f *fakeSession) GuildEmoji(guildID, emojiID string, options ...discordgo.RequestOption) (*discordgo.Emoji, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emoji, ok := f.emojis[emojiID]
	if !ok {
		return nil, notFound()
	}
	out := *emoji
	return &out, nil
}

type memStore struct {
	mu       sync.Mutex
	settings map[string]Settings
	tracked  map[string]*TrackedMessage
}

func newMemStore() *memStore {
	return &memStore{
		settings: make(map[string]Settings),
		tracked:  make(map[string]*TrackedMessage),
	}
}

func (s *memStore) BoardSettings(guildID string) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[guildID], nil
}

func (s *memStore) TrackedMessage(guildID, messageID string) (*TrackedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tm, ok := s.tracked[key(guildID, messageID)]
	if !ok {
		return nil, nil
	}
	out := *tm
	return &out, nil
}

func (s *memStore) TrackedMessageByBoard(guildID, boardMessageID string) (*TrackedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tm := range s.tracked {
		if tm.GuildID == guildID && tm.BoardMessageID == boardMessageID {
			out := *tm
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) SaveTrackedMessage(tm *TrackedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *tm
	s.tracked[key(tm.GuildID, tm.MessageID)] = &out
	return nil
}

func (s *memStore) DeleteTrackedMessage(guildID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracked, key(guildID, messageID))
	return nil
}

func (s *memStore) trackedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked)
}

// fakeBus records handlers the way discordgo.Session.AddHandler would.
type fakeBus struct {
	handlers []interface{}
	removed  int
}

func (b *fakeBus) AddHandler(handler interface{}) func() {
	b.handlers = append(b.handlers, handler)
	return func() { b.removed++ }
}
