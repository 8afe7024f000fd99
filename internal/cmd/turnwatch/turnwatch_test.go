package turnwatch

import (
	"context"
	"flag"
	"strings"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("turnwatch", flag.ContinueOnError)
	t.Setenv("TURNWATCH_PORT", "9099")
	t.Setenv("TURNWATCH_BOT_TOKEN", "env-token")

	cfg, err := ParseConfig(fs, []string{"-poll-interval", "90s", "-locale", "uk"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9099 {
		t.Fatalf("port = %d, want 9099", cfg.Port)
	}
	if cfg.BotToken != "env-token" {
		t.Fatalf("bot token = %q, want %q", cfg.BotToken, "env-token")
	}
	if cfg.PollInterval != 90*time.Second {
		t.Fatalf("poll interval = %s, want 90s", cfg.PollInterval)
	}
	if cfg.Locale != "uk" {
		t.Fatalf("locale = %q, want %q", cfg.Locale, "uk")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("turnwatch", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8090 {
		t.Fatalf("port = %d, want 8090", cfg.Port)
	}
	if cfg.GameBaseURL != "https://uncivserver.xyz/jsons/" {
		t.Fatalf("game base URL = %q, want the public server", cfg.GameBaseURL)
	}
	if cfg.SnapshotPath != "data/turnwatch.json" {
		t.Fatalf("snapshot path = %q, want %q", cfg.SnapshotPath, "data/turnwatch.json")
	}
	if cfg.JournalPath != "data/turnwatch.db" {
		t.Fatalf("journal path = %q, want %q", cfg.JournalPath, "data/turnwatch.db")
	}
	if cfg.PollInterval != time.Minute {
		t.Fatalf("poll interval = %s, want 1m", cfg.PollInterval)
	}
	if cfg.Schedule != "" {
		t.Fatalf("schedule = %q, want empty for the built-in default", cfg.Schedule)
	}
	if cfg.Locale != "en" {
		t.Fatalf("locale = %q, want en", cfg.Locale)
	}
}

func TestRun_RejectsMalformedSchedule(t *testing.T) {
	err := Run(context.Background(), Config{
		BotToken:    "token",
		GameBaseURL: "https://game.example/files/",
		Schedule:    "10m,oops",
	})
	if err == nil {
		t.Fatal("malformed schedule accepted")
	}
	if !strings.Contains(err.Error(), "reminder schedule") {
		t.Fatalf("err = %v, want a schedule parse error", err)
	}
}
