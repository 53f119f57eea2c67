package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/semaphore"
)

const (
	DEFAULT_DEBOUNCE_WINDOW = 2 * time.Second
	DEFAULT_SETTLE_DELAY    = 500 * time.Millisecond
	DEFAULT_LOCK_TIMEOUT    = 2 * time.Minute

	PLACEHOLDER_CONTENT = "caching context"
	reactorPageSize     = 100
)

// Aggregator mirrors popular messages into a guild's board channel.
// Updates are serialized process wide: only one runs at a time no
// matter which guild or message it is for.
type Aggregator struct {
	session   Session
	store     Store
	lock      *semaphore.Weighted
	debouncer *debouncer
	closed    atomic.Bool

	settleDelay time.Duration
	lockTimeout time.Duration

	// observes lock acquisition, used by tests
	onAcquire func(Ref)
	onRelease func(Ref)
}

type Option func(*Aggregator)

func WithDebounceWindow(window time.Duration) Option {
	return func(a *Aggregator) {
		a.debouncer.window = window
	}
}

// WithSettleDelay sets how long to wait between posting a new board
// message and editing it with the real embed.
func WithSettleDelay(delay time.Duration) Option {
	return func(a *Aggregator) {
		a.settleDelay = delay
	}
}

// WithLockTimeout bounds how long an update waits for the running one.
// Zero waits until the caller's context is done.
func WithLockTimeout(timeout time.Duration) Option {
	return func(a *Aggregator) {
		a.lockTimeout = timeout
	}
}

func NewAggregator(session Session, store Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		session:     session,
		store:       store,
		lock:        semaphore.NewWeighted(1),
		debouncer:   newDebouncer(DEFAULT_DEBOUNCE_WINDOW),
		settleDelay: DEFAULT_SETTLE_DELAY,
		lockTimeout: DEFAULT_LOCK_TIMEOUT,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close cancels any pending trailing updates.
func (a *Aggregator) Close() {
	a.debouncer.stop()
}

// Shutdown rejects new updates, cancels pending trailing ones and waits
// for the running update, if any, to finish.
func (a *Aggregator) Shutdown(ctx context.Context) error {
	a.closed.Store(true)
	a.debouncer.stop()
	if err := a.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for running board update: %w", err)
	}
	a.lock.Release(1)
	return nil
}

// Prune drops debounce entries older than olderThan.
func (a *Aggregator) Prune(olderThan time.Duration) int {
	return a.debouncer.prune(olderThan)
}

// Update recounts the tracking emoji on the referenced message and
// creates, edits or deletes its board message accordingly.
func (a *Aggregator) Update(ctx context.Context, ref Ref) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if !a.debouncer.allow(ref.MessageID, func() { a.retry(ref) }) {
		return nil
	}

	lockCtx := ctx
	if a.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, a.lockTimeout)
		defer cancel()
	}
	if err := a.lock.Acquire(lockCtx, 1); err != nil {
		return fmt.Errorf("waiting for board update lock: %w", err)
	}
	if a.closed.Load() {
		a.lock.Release(1)
		return ErrClosed
	}
	if a.onAcquire != nil {
		a.onAcquire(ref)
	}
	defer func() {
		if a.onRelease != nil {
			a.onRelease(ref)
		}
		a.lock.Release(1)
	}()

	return a.update(ctx, ref)
}

func (a *Aggregator) retry(ref Ref) {
	if err := a.Update(context.Background(), ref); err != nil {
		log.Printf("delayed board update for %s failed: %s\n", ref, err)
	}
}

func (a *Aggregator) update(ctx context.Context, ref Ref) error {
	settings, err := a.store.BoardSettings(ref.GuildID)
	if err != nil {
		return fmt.Errorf("unable to load board settings: %w", err)
	}
	if err := settings.Ready(); err != nil {
		return err
	}

	if ref.ChannelID == settings.ChannelID {
		// reactions on a board message count towards its source
		tracked, err := a.store.TrackedMessageByBoard(ref.GuildID, ref.MessageID)
		if err != nil {
			return fmt.Errorf("unable to look up board message: %w", err)
		}
		if tracked != nil {
			ref = tracked.Source()
		} else if !settings.AllowBoardReactions {
			return ErrBoardChannel
		}
	}

	source, err := a.session.ChannelMessage(ref.ChannelID, ref.MessageID)
	if err != nil {
		return fmt.Errorf("unable to fetch message %s: %w", ref, err)
	}

	tracked, boardMsg, err := a.boardMessage(ref)
	if err != nil {
		return err
	}

	count, err := a.countReactions(settings.EmojiID, source, boardMsg)
	if err != nil {
		return err
	}
	boarded := count >= settings.Threshold
	log.Printf("Looking for %d found %d boarded %t\n", settings.Threshold, count, boarded)

	if !boarded {
		if boardMsg == nil {
			return nil
		}
		log.Println("Shouldn't be boarded, but found a board message")
		if err := a.session.ChannelMessageDelete(boardMsg.ChannelID, boardMsg.ID); err != nil && !IsNotFound(err) {
			return fmt.Errorf("unable to delete board message: %w", err)
		}
		if err := a.store.DeleteTrackedMessage(ref.GuildID, ref.MessageID); err != nil {
			return fmt.Errorf("unable to remove tracked message: %w", err)
		}
		return nil
	}

	if boardMsg == nil {
		log.Println("No board message, making a new one")
		boardMsg, err = a.session.ChannelMessageSend(settings.ChannelID, PLACEHOLDER_CONTENT)
		if err != nil {
			return fmt.Errorf("unable to create board message: %w", err)
		}
		if tracked == nil {
			tracked = &TrackedMessage{
				GuildID:   ref.GuildID,
				ChannelID: ref.ChannelID,
				MessageID: ref.MessageID,
			}
		}
		tracked.BoardChannelID = boardMsg.ChannelID
		if tracked.BoardChannelID == "" {
			tracked.BoardChannelID = settings.ChannelID
		}
		tracked.BoardMessageID = boardMsg.ID
		if err := a.store.SaveTrackedMessage(tracked); err != nil {
			return fmt.Errorf("unable to save tracked message: %w", err)
		}
		if err := sleep(ctx, a.settleDelay); err != nil {
			return err
		}
	}

	if err := a.editBoardMessage(ref, settings, source, tracked.BoardChannelID, boardMsg.ID, count); err != nil {
		// stale board content is preferred over surfacing api errors
		log.Println("Unable to update board message: ", err)
	}
	return nil
}

// boardMessage fetches the board message mirroring ref. A mapping
// whose board message no longer exists is dropped.
func (a *Aggregator) boardMessage(ref Ref) (*TrackedMessage, *discordgo.Message, error) {
	tracked, err := a.store.TrackedMessage(ref.GuildID, ref.MessageID)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to load tracked message: %w", err)
	}
	if tracked == nil || tracked.BoardMessageID == "" {
		return tracked, nil, nil
	}

	boardMsg, err := a.session.ChannelMessage(tracked.BoardChannelID, tracked.BoardMessageID)
	if err != nil {
		if !IsNotFound(err) {
			return nil, nil, fmt.Errorf("unable to fetch board message: %w", err)
		}
		log.Printf("Board message %s is gone, forgetting it\n", tracked.BoardMessageID)
		if err := a.store.DeleteTrackedMessage(ref.GuildID, ref.MessageID); err != nil {
			return nil, nil, fmt.Errorf("unable to remove tracked message: %w", err)
		}
		return nil, nil, nil
	}
	if boardMsg.ChannelID == "" {
		boardMsg.ChannelID = tracked.BoardChannelID
	}
	return tracked, boardMsg, nil
}

func (a *Aggregator) editBoardMessage(
	ref Ref,
	settings Settings,
	source *discordgo.Message,
	boardChannelID string,
	boardMessageID string,
	count int,
) error {
	emoji, err := a.session.GuildEmoji(ref.GuildID, settings.EmojiID)
	if err != nil {
		return fmt.Errorf("unable to fetch emoji %s: %w", settings.EmojiID, err)
	}
	// the placeholder text is cleared so only the embed remains
	content := ""
	embeds := []*discordgo.MessageEmbed{boardEmbed(ref, source, emoji, count)}
	_, err = a.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:      boardMessageID,
		Channel: boardChannelID,
		Content: &content,
		Embeds:  &embeds,
	})
	return err
}

func IsNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
