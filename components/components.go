package components

import (
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const EXPIRED_RESPONSE = "This component has expired"

type ComponentClient interface {
	AddHandler(handler interface{}) func()
	// see discordgo.Session.InteractionRespond()
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
}

// ComponentHandler routes message component clicks to the callback
// registered under the component's CustomID.
type ComponentHandler struct {
	client            ComponentClient // discord client
	mu                sync.Mutex
	callbackFuncs     map[string]func(*discordgo.InteractionCreate)
	removeHandlerFunc func()
}

func NewComponentHandler(client ComponentClient) *ComponentHandler {
	componentHandler := &ComponentHandler{
		client:        client,
		callbackFuncs: map[string]func(*discordgo.InteractionCreate){},
	}

	componentHandler.removeHandlerFunc = client.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		componentHandler.Handle(i)
	})

	return componentHandler
}

// Handle dispatches a component interaction. Anything else is ignored.
func (c *ComponentHandler) Handle(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	c.mu.Lock()
	callbackFunc, ok := c.callbackFuncs[i.MessageComponentData().CustomID]
	c.mu.Unlock()

	if !ok {
		if err := c.client.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: EXPIRED_RESPONSE,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		},
		); err != nil {
			log.Println("Error sending response", err)
		}
		return
	}

	noOpResponse(c.client, i)
	callbackFunc(i)
}

func (c *ComponentHandler) Close() {
	c.removeHandlerFunc()
}

// WithButton creates and overrides a new CustomID and registers onClick
// to run after a deferred update response is sent
func (c *ComponentHandler) WithButton(button discordgo.Button, onClick func(i *discordgo.InteractionCreate)) discordgo.Button {
	componentID := uuid.New().String()
	button.CustomID = componentID

	c.mu.Lock()
	c.callbackFuncs[componentID] = onClick
	c.mu.Unlock()

	return button
}

// Remove deregisters the button with the given CustomID.
func (c *ComponentHandler) Remove(customID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.callbackFuncs, customID)
}

// Registered returns how many components still have a callback.
func (c *ComponentHandler) Registered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.callbackFuncs)
}

// ButtonRow returns an ActionRow component holding the buttons.
func ButtonRow(buttons ...discordgo.Button) discordgo.ActionsRow {
	components := make([]discordgo.MessageComponent, len(buttons))
	for i, button := range buttons {
		components[i] = button
	}
	return discordgo.ActionsRow{
		Components: components,
	}
}

func noOpResponse(client ComponentClient, i *discordgo.InteractionCreate) {
	if err := client.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	},
	); err != nil {
		log.Println("Error sending response", err)
	}
}
