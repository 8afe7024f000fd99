package telegram

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/turnwatch/turnwatch/internal/journal"
	"github.com/turnwatch/turnwatch/internal/monitor"
	"github.com/turnwatch/turnwatch/internal/render"
)

const (
	historyDefaultLimit = 5
	historyMaxLimit     = 20

	// pollRetryDelay spaces out getUpdates retries after a failure so a
	// broken network does not spin the loop.
	pollRetryDelay = 3 * time.Second
)

// Core is the monitoring surface the bot commands drive.
type Core interface {
	SetGame(ctx context.Context, gameID string) (monitor.SetGameResult, error)
	SetInterval(ctx context.Context, interval time.Duration) error
	Subscribe(ctx context.Context, faction, handle string) (string, error)
	Unsubscribe(ctx context.Context, handle string) (string, error)
	TogglePause(ctx context.Context) monitor.PauseResult
	SetLocale(ctx context.Context, locale string) error
	BindDestination(ctx context.Context, destination int64)
	Status() monitor.StatusReport
	Subscriptions() []monitor.Subscription
	Locale() string
}

// HistorySource feeds the history command.
type HistorySource interface {
	ListRecent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Bot translates chat commands into core operations and renders replies
// in the active locale.
type Bot struct {
	client  *Client
	core    Core
	history HistorySource
}

// NewBot wires the command surface.
func NewBot(client *Client, core Core, history HistorySource) (*Bot, error) {
	if client == nil {
		return nil, errors.New("telegram: client is required")
	}
	if core == nil {
		return nil, errors.New("telegram: core is required")
	}
	if history == nil {
		return nil, errors.New("telegram: history source is required")
	}
	return &Bot{client: client, core: core, history: history}, nil
}

// Listen long-polls for updates until ctx is cancelled, dispatching each
// message through HandleUpdate. Poll failures back off and retry.
func (b *Bot) Listen(ctx context.Context) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("poll updates: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update. Non-command messages are ignored;
// command replies go back to the originating chat.
func (b *Bot) HandleUpdate(ctx context.Context, update Update) {
	if update.Message == nil {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	command, args := splitCommand(text)
	reply := b.dispatch(ctx, update.Message.Chat.ID, command, args)
	if reply == "" {
		return
	}
	if err := b.client.SendMessage(ctx, update.Message.Chat.ID, reply); err != nil {
		log.Printf("send %s reply: %v", command, err)
	}
}

// splitCommand separates the command word from its arguments and strips
// the group-chat @botname suffix.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	command := strings.ToLower(fields[0])
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return command, fields[1:]
}

func (b *Bot) dispatch(ctx context.Context, chatID int64, command string, args []string) string {
	locale := b.core.Locale()
	switch command {
	case "/start":
		b.core.BindDestination(ctx, chatID)
		return render.Welcome(locale)

	case "/help":
		return render.Help(locale)

	case "/setgame":
		if len(args) != 1 {
			return render.SetGameUsage(locale)
		}
		b.core.BindDestination(ctx, chatID)
		result, err := b.core.SetGame(ctx, args[0])
		if err != nil {
			if errors.Is(err, monitor.ErrBadGameID) {
				return render.SetGameUsage(locale)
			}
			return render.SetGameFetchFailed(locale, args[0])
		}
		return render.SetGameSuccess(locale, result.GameID, result.Factions, result.Interval)

	case "/setinterval":
		if len(args) != 1 {
			return render.SetIntervalUsage(locale)
		}
		interval, err := parseInterval(args[0])
		if err != nil {
			return render.SetIntervalUsage(locale)
		}
		if err := b.core.SetInterval(ctx, interval); err != nil {
			return render.SetIntervalUsage(locale)
		}
		return render.SetIntervalSuccess(locale, interval)

	case "/subscribe":
		if len(args) < 2 {
			return render.SubscribeUsage(locale)
		}
		handle := args[len(args)-1]
		faction := strings.Join(args[:len(args)-1], " ")
		b.core.BindDestination(ctx, chatID)
		display, err := b.core.Subscribe(ctx, faction, handle)
		switch {
		case errors.Is(err, monitor.ErrBadHandle):
			return render.SubscribeBadHandle(locale)
		case errors.Is(err, monitor.ErrNoSession), errors.Is(err, monitor.ErrUnknownFaction):
			return render.SubscribeUnknownFaction(locale)
		case err != nil:
			return render.SubscribeUsage(locale)
		}
		return render.SubscribeSuccess(locale, display, handle)

	case "/unsubscribe":
		if len(args) != 1 {
			return render.UnsubscribeUsage(locale)
		}
		faction, err := b.core.Unsubscribe(ctx, args[0])
		if err != nil {
			return render.UnsubscribeNotFound(locale, args[0])
		}
		return render.UnsubscribeSuccess(locale, args[0], faction)

	case "/pause":
		return render.Pause(locale, b.core.TogglePause(ctx))

	case "/status":
		report := b.core.Status()
		if report.GameID == "" {
			return render.StatusNoGame(locale)
		}
		return render.Status(locale, report)

	case "/list":
		return render.SubscriptionList(locale, b.core.Subscriptions())

	case "/setlang":
		if len(args) != 1 {
			return render.SetLangUsage(locale)
		}
		tag, ok := render.Normalize(args[0])
		if !ok {
			return render.SetLangUsage(locale)
		}
		if err := b.core.SetLocale(ctx, tag); err != nil {
			return render.SetLangUsage(locale)
		}
		// The confirmation speaks the language just chosen.
		return render.SetLangSuccess(tag)

	case "/history":
		if len(args) > 1 {
			return render.HistoryUsage(locale)
		}
		limit := historyDefaultLimit
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return render.HistoryUsage(locale)
			}
			limit = min(n, historyMaxLimit)
		}
		entries, err := b.history.ListRecent(ctx, limit)
		if err != nil {
			log.Printf("list history: %v", err)
		}
		return render.History(locale, entries)

	default:
		return ""
	}
}

// parseInterval reads a bare number as seconds and anything else as a Go
// duration literal.
func parseInterval(raw string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
