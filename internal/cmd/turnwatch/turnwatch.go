// Package turnwatch parses turnwatch command flags and launches the
// monitoring runtime.
package turnwatch

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/turnwatch/turnwatch/internal/monitor"
	"github.com/turnwatch/turnwatch/internal/monitor/app"
	entrypoint "github.com/turnwatch/turnwatch/internal/platform/cmd"
)

// Config holds turnwatch command configuration.
type Config struct {
	Port         int           `env:"TURNWATCH_PORT" envDefault:"8090"`
	BotToken     string        `env:"TURNWATCH_BOT_TOKEN"`
	BotAPIURL    string        `env:"TURNWATCH_BOT_API_URL"`
	GameBaseURL  string        `env:"TURNWATCH_GAME_BASE_URL" envDefault:"https://uncivserver.xyz/jsons/"`
	SnapshotPath string        `env:"TURNWATCH_SNAPSHOT_PATH" envDefault:"data/turnwatch.json"`
	JournalPath  string        `env:"TURNWATCH_JOURNAL_PATH" envDefault:"data/turnwatch.db"`
	PollInterval time.Duration `env:"TURNWATCH_POLL_INTERVAL" envDefault:"60s"`
	Schedule     string        `env:"TURNWATCH_REMINDER_SCHEDULE"`
	Locale       string        `env:"TURNWATCH_LOCALE" envDefault:"en"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The health gRPC server port")
	fs.StringVar(&cfg.BotToken, "bot-token", cfg.BotToken, "The Telegram bot token")
	fs.StringVar(&cfg.BotAPIURL, "bot-api-url", cfg.BotAPIURL, "The Telegram Bot API base URL override")
	fs.StringVar(&cfg.GameBaseURL, "game-base-url", cfg.GameBaseURL, "The game state server base URL")
	fs.StringVar(&cfg.SnapshotPath, "snapshot-path", cfg.SnapshotPath, "The monitor snapshot file path")
	fs.StringVar(&cfg.JournalPath, "journal-path", cfg.JournalPath, "The notification journal SQLite database path")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Game state poll interval")
	fs.StringVar(&cfg.Schedule, "reminder-schedule", cfg.Schedule, "Comma-separated reminder offsets from turn start (default 10m,30m,1h)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Outbound message locale (en or uk)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the monitoring runtime.
func Run(ctx context.Context, cfg Config) error {
	schedule := monitor.Schedule(nil)
	if cfg.Schedule != "" {
		parsed, err := monitor.ParseSchedule(cfg.Schedule)
		if err != nil {
			return fmt.Errorf("parse reminder schedule: %w", err)
		}
		schedule = parsed
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTurnwatch, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:         cfg.Port,
			BotToken:     cfg.BotToken,
			BotAPIURL:    cfg.BotAPIURL,
			GameBaseURL:  cfg.GameBaseURL,
			SnapshotPath: cfg.SnapshotPath,
			JournalPath:  cfg.JournalPath,
			PollInterval: cfg.PollInterval,
			Schedule:     schedule,
			Locale:       cfg.Locale,
		})
	})
}
