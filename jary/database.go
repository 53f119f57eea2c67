package jary

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"jarybot/board"
)

type Database interface {
	board.Store

	GuildConfig(guildID string) (*GuildConfig, error)
	// loads (or creates) the guild's row, applies update and saves it
	UpdateGuildConfig(guildID string, update func(gc *GuildConfig)) (*GuildConfig, error)
	// guilds with a sector clock channel configured
	ClockGuilds() ([]*GuildConfig, error)
	Close() error
}

// GuildConfig holds every per-guild setting. A nil pointer means the
// value was never set.
type GuildConfig struct {
	GuildID string `gorm:"primaryKey"`

	BoardEmojiID        *string
	BoardChannelID      *string
	BoardThreshold      *int
	AllowBoardReactions bool

	ReportsAdminChannelID *string
	ReportsChannelID      *string

	ClockChannelID *string
	ClockMessageID *string

	UpdatedAt time.Time
}

// TrackedMessage maps a source message to its board message.
type TrackedMessage struct {
	ID             uint   `gorm:"primaryKey"`
	GuildID        string `gorm:"uniqueIndex:idx_tracked_source"`
	MessageID      string `gorm:"uniqueIndex:idx_tracked_source"`
	ChannelID      string
	BoardChannelID string
	BoardMessageID string `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (tm *TrackedMessage) toBoard() *board.TrackedMessage {
	return &board.TrackedMessage{
		GuildID:        tm.GuildID,
		ChannelID:      tm.ChannelID,
		MessageID:      tm.MessageID,
		BoardChannelID: tm.BoardChannelID,
		BoardMessageID: tm.BoardMessageID,
	}
}

const DB_SLOW_THRESHOLD = 200 * time.Millisecond

// lookups of unconfigured guilds and untracked messages miss on every
// reaction, so misses are not logged.
var gormLogger = logger.New(log.Default(), logger.Config{
	SlowThreshold:             DB_SLOW_THRESHOLD,
	LogLevel:                  logger.Warn,
	IgnoreRecordNotFoundError: true,
})

type DB struct {
	*gorm.DB
}

func NewDB(dialect, dsn string) (*DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DB_SQLITE:
		dialector = sqlite.Open(dsn)
	case DB_POSTGRES:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf(
			"unsupported database type: %s (must be %q or %q)",
			dialect, DB_SQLITE, DB_POSTGRES,
		)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&GuildConfig{}, &TrackedMessage{}); err != nil {
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) GuildConfig(guildID string) (*GuildConfig, error) {
	var gc GuildConfig
	err := db.DB.First(&gc, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &GuildConfig{GuildID: guildID}, nil
	}
	return &gc, err
}

func (db *DB) UpdateGuildConfig(guildID string, update func(gc *GuildConfig)) (*GuildConfig, error) {
	var gc GuildConfig
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.FirstOrCreate(&gc, GuildConfig{GuildID: guildID}).Error; err != nil {
			return err
		}
		update(&gc)
		return tx.Save(&gc).Error
	})
	return &gc, err
}

func (db *DB) ClockGuilds() ([]*GuildConfig, error) {
	var gcs []*GuildConfig
	err := db.DB.Where("clock_channel_id IS NOT NULL").Find(&gcs).Error
	return gcs, err
}

func (db *DB) BoardSettings(guildID string) (board.Settings, error) {
	gc, err := db.GuildConfig(guildID)
	if err != nil {
		return board.Settings{}, err
	}
	settings := board.Settings{
		AllowBoardReactions: gc.AllowBoardReactions,
	}
	if gc.BoardEmojiID != nil {
		settings.EmojiID = *gc.BoardEmojiID
	}
	if gc.BoardChannelID != nil {
		settings.ChannelID = *gc.BoardChannelID
	}
	if gc.BoardThreshold != nil {
		settings.Threshold = *gc.BoardThreshold
	}
	return settings, nil
}

func (db *DB) TrackedMessage(guildID, messageID string) (*board.TrackedMessage, error) {
	return db.findTrackedMessage("guild_id = ? AND message_id = ?", guildID, messageID)
}

func (db *DB) TrackedMessageByBoard(guildID, boardMessageID string) (*board.TrackedMessage, error) {
	return db.findTrackedMessage("guild_id = ? AND board_message_id = ?", guildID, boardMessageID)
}

func (db *DB) findTrackedMessage(query string, args ...interface{}) (*board.TrackedMessage, error) {
	var tm TrackedMessage
	err := db.DB.Where(query, args...).First(&tm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tm.toBoard(), nil
}

func (db *DB) SaveTrackedMessage(tm *board.TrackedMessage) error {
	row := &TrackedMessage{
		GuildID:        tm.GuildID,
		MessageID:      tm.MessageID,
		ChannelID:      tm.ChannelID,
		BoardChannelID: tm.BoardChannelID,
		BoardMessageID: tm.BoardMessageID,
	}
	return db.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guild_id"}, {Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"channel_id",
			"board_channel_id",
			"board_message_id",
			"updated_at",
		}),
	}).Create(row).Error
}

func (db *DB) DeleteTrackedMessage(guildID, messageID string) error {
	return db.DB.
		Where("guild_id = ? AND message_id = ?", guildID, messageID).
		Delete(&TrackedMessage{}).Error
}
