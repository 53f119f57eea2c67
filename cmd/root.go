package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jarybot/board"
	"jarybot/jary"
)

const ENV_PREFIX = "JARY"

var (
	cfg        = jary.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "jarybot [flags]",
	Short: "Discord bot running the reaction board, staff reports and sector clock",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := viper.Unmarshal(
			cfg,
			viper.DecodeHook(
				mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
				),
			),
		)
		if err != nil {
			log.Fatalln(err)
		}
	},
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	rootCmd.SetContext(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(
		signals,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer func() {
		signal.Stop(signals)
		cancel()
	}()
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initConfig() {
	if configFile == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		}
	} else {
		log.Println("loading env from file", configFile)
		if err := godotenv.Load(configFile); err != nil {
			log.Println("No .env file found")
		}
	}

	viper.SetDefault("discord_token", "")
	viper.SetDefault("guild_id", "")
	viper.SetDefault("database_type", jary.DB_SQLITE)
	viper.SetDefault("database", jary.DEFAULT_DATABASE)

	viper.SetDefault("board.debounce_window", board.DEFAULT_DEBOUNCE_WINDOW)
	viper.SetDefault("board.settle_delay", board.DEFAULT_SETTLE_DELAY)
	viper.SetDefault("board.lock_timeout", board.DEFAULT_LOCK_TIMEOUT)
	viper.SetDefault("board.prune_interval", jary.DEFAULT_PRUNE_INTERVAL)
	viper.SetDefault("board.panel_expiry", jary.DEFAULT_PANEL_EXPIRY)

	viper.SetDefault("clock.interval", jary.DEFAULT_CLOCK_INTERVAL)

	viper.SetDefault("reports.rate_per_minute", jary.DEFAULT_REPORTS_RATE)
	viper.SetDefault("reports.burst", jary.DEFAULT_REPORTS_BURST)

	viper.SetEnvPrefix(ENV_PREFIX)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		".env file to load before reading the environment",
	)
}
