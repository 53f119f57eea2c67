package jary

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"jarybot/board"
	"jarybot/components"
)

const SHUTDOWN_TIMEOUT = 30 * time.Second

type Jary struct {
	DiscordSession   DiscordSession
	DB               Database
	ComponentHandler *components.ComponentHandler
	Config           *Config
	Scheduler        *Scheduler
	Board            *board.Aggregator

	reportLimiter *reportLimiter
}

type JaryOption func(*Jary)

func WithDiscordSession(dg DiscordSession) JaryOption {
	return func(j *Jary) {
		j.DiscordSession = dg
	}
}

func WithDatabase(db Database) JaryOption {
	return func(j *Jary) {
		j.DB = db
	}
}

// NewJary builds the bot from cfg. Options replace the discord session or
// database built from the config, which tests use to inject fakes.
func NewJary(cfg *Config, opts ...JaryOption) (*Jary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	j := &Jary{
		Config:        cfg,
		reportLimiter: newReportLimiter(cfg.Reports.RatePerMinute, cfg.Reports.Burst),
	}
	for _, opt := range opts {
		opt(j)
	}

	if j.DiscordSession == nil {
		session, err := NewSession(cfg.DiscordToken)
		if err != nil {
			return nil, err
		}
		j.DiscordSession = session
	}

	if j.DB == nil {
		log.Println("Connecting to db")
		db, err := NewDB(cfg.DatabaseType, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("unable to get database connection: %w", err)
		}
		j.DB = db
	}

	scheduler, err := NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("could not create scheduler: %w", err)
	}
	j.Scheduler = scheduler

	j.Board = board.NewAggregator(j.DiscordSession, j.DB, cfg.boardOptions()...)
	j.ComponentHandler = components.NewComponentHandler(j.DiscordSession)

	return j, nil
}

// registerHandlers subscribes every cog to gateway events and returns a
// func removing them again.
func (j *Jary) registerHandlers() func() {
	removeMessage := j.DiscordSession.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		messageCreate(m, j)
	})
	removeCommand := j.DiscordSession.AddHandler(
		func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
			switch i.Type {
			case discordgo.InteractionApplicationCommand:
				onCommand(i, j)
			}
		},
	)
	removeBoard := j.Board.Register(j.DiscordSession)

	return func() {
		removeMessage()
		removeCommand()
		removeBoard()
	}
}

// scheduleJobs adds the recurring clock refresh and board housekeeping.
func (j *Jary) scheduleJobs(ctx context.Context) error {
	if err := j.Scheduler.AddDurationJob(j.Config.Clock.Interval, func() {
		if err := refreshClocks(ctx, j); err != nil {
			log.Println("Unable to refresh clocks: ", err)
		}
	}, CLOCK_TAG); err != nil {
		return fmt.Errorf("unable to schedule clock refresh: %w", err)
	}

	if err := j.Scheduler.AddDurationJob(j.Config.Board.PruneInterval, func() {
		pruned := j.Board.Prune(j.Config.Board.PruneInterval)
		pruned += j.reportLimiter.Prune(REPORT_LIMITER_IDLE_EXPIRES)
		if pruned > 0 {
			log.Printf("Pruned %d idle entries\n", pruned)
		}
	}, PRUNE_TAG); err != nil {
		return fmt.Errorf("unable to schedule pruning: %w", err)
	}
	return nil
}

// Run connects to discord and blocks until ctx is done.
func (j *Jary) Run(ctx context.Context) error {
	// deferred first so the database outlives everything that uses it
	defer func() {
		if err := j.DB.Close(); err != nil {
			log.Println("Unable to close database: ", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		if err := j.Board.Shutdown(shutdownCtx); err != nil {
			log.Println("Unable to stop board updates: ", err)
		}
	}()
	defer j.ComponentHandler.Close()

	removeHandlers := j.registerHandlers()
	defer removeHandlers()

	if err := j.DiscordSession.Open(); err != nil {
		return fmt.Errorf("error unable to open discord session %w", err)
	}
	defer j.DiscordSession.Close()

	if _, err := initSlashCommands(j.DiscordSession, j.Config.GuildID); err != nil {
		return err
	}

	if err := j.scheduleJobs(ctx); err != nil {
		return err
	}
	j.Scheduler.Start()
	defer func() {
		if err := j.Scheduler.Shutdown(); err != nil {
			log.Println("Unable to shutdown scheduler: ", err)
		}
	}()

	log.Println("Bot is now running. Press CTRL+C to exit.")
	<-ctx.Done()
	log.Println("Shutting down")
	return nil
}
