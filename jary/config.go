package jary

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"jarybot/board"
)

const (
	DB_SQLITE   = "sqlite"
	DB_POSTGRES = "postgres"

	DEFAULT_DATABASE       = "jary.db"
	DEFAULT_PRUNE_INTERVAL = 10 * time.Minute
	DEFAULT_PANEL_EXPIRY   = 15 * time.Minute
	DEFAULT_CLOCK_INTERVAL = 1 * time.Minute
	DEFAULT_REPORTS_RATE   = 2.0
	DEFAULT_REPORTS_BURST  = 2
)

// set at build time with -ldflags
var (
	Version   = "dev"
	CommitSHA = "unknown"
)

type Config struct {
	DiscordToken string `mapstructure:"discord_token" validate:"required"`
	// registers slash commands on a single guild instead of globally
	GuildID      string `mapstructure:"guild_id"`
	DatabaseType string `mapstructure:"database_type" validate:"oneof=sqlite postgres"`
	// sqlite file path or postgres connection string
	Database string        `mapstructure:"database" validate:"required"`
	Board    BoardConfig   `mapstructure:"board"`
	Clock    ClockConfig   `mapstructure:"clock"`
	Reports  ReportsConfig `mapstructure:"reports"`
}

type BoardConfig struct {
	// repeat updates for one message inside this window are coalesced
	DebounceWindow time.Duration `mapstructure:"debounce_window" validate:"gte=0"`
	SettleDelay    time.Duration `mapstructure:"settle_delay" validate:"gte=0"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout" validate:"gte=0"`
	PruneInterval  time.Duration `mapstructure:"prune_interval" validate:"gt=0"`
	// how long a /board settings toggle button keeps working after its last use
	PanelExpiry time.Duration `mapstructure:"panel_expiry" validate:"gt=0"`
}

type ClockConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

type ReportsConfig struct {
	RatePerMinute float64 `mapstructure:"rate_per_minute" validate:"gt=0"`
	Burst         int     `mapstructure:"burst" validate:"gte=1"`
}

func DefaultConfig() *Config {
	return &Config{
		DatabaseType: DB_SQLITE,
		Database:     DEFAULT_DATABASE,
		Board: BoardConfig{
			DebounceWindow: board.DEFAULT_DEBOUNCE_WINDOW,
			SettleDelay:    board.DEFAULT_SETTLE_DELAY,
			LockTimeout:    board.DEFAULT_LOCK_TIMEOUT,
			PruneInterval:  DEFAULT_PRUNE_INTERVAL,
			PanelExpiry:    DEFAULT_PANEL_EXPIRY,
		},
		Clock: ClockConfig{
			Interval: DEFAULT_CLOCK_INTERVAL,
		},
		Reports: ReportsConfig{
			RatePerMinute: DEFAULT_REPORTS_RATE,
			Burst:         DEFAULT_REPORTS_BURST,
		},
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) boardOptions() []board.Option {
	return []board.Option{
		board.WithDebounceWindow(c.Board.DebounceWindow),
		board.WithSettleDelay(c.Board.SettleDelay),
		board.WithLockTimeout(c.Board.LockTimeout),
	}
}
