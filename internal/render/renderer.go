// Package render turns monitor events and command results into localized
// chat copy. Messages use Telegram HTML markup; catalogs are registered
// per locale in messages_*.go files.
package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/turnwatch/turnwatch/internal/journal"
	"github.com/turnwatch/turnwatch/internal/monitor"
)

// LocaleEnglish and LocaleUkrainian are the supported outbound locales.
const (
	LocaleEnglish   = "en"
	LocaleUkrainian = "uk"
)

var printers = map[string]*message.Printer{
	LocaleEnglish:   message.NewPrinter(language.English),
	LocaleUkrainian: message.NewPrinter(language.Ukrainian),
}

// Normalize maps a user-supplied language code to a supported locale.
// The legacy "ua" spelling is accepted as Ukrainian.
func Normalize(locale string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case LocaleEnglish:
		return LocaleEnglish, true
	case LocaleUkrainian, "ua":
		return LocaleUkrainian, true
	default:
		return "", false
	}
}

func printerFor(locale string) *message.Printer {
	if p, ok := printers[locale]; ok {
		return p
	}
	return printers[LocaleEnglish]
}

// LanguageName returns the display name of a locale, rendered in that
// same locale.
func LanguageName(locale string) string {
	p := printerFor(locale)
	if locale == LocaleUkrainian {
		return p.Sprintf("reply.lang.uk")
	}
	return p.Sprintf("reply.lang.en")
}

// Notification renders one monitor event for delivery. The faction line
// drops the personal ping when no handle is subscribed.
func Notification(event monitor.Event) string {
	p := printerFor(event.Locale)
	switch event.Kind {
	case monitor.EventTurnChange:
		if event.Handle != "" {
			return p.Sprintf("notify.turn.ping", event.Faction, event.Handle)
		}
		return p.Sprintf("notify.turn", event.Faction)
	case monitor.EventReminder:
		elapsed := FormatDuration(event.Elapsed)
		if event.Handle != "" {
			return p.Sprintf("notify.reminder.ping", event.Handle, elapsed)
		}
		return p.Sprintf("notify.reminder", event.Faction, elapsed)
	case monitor.EventError:
		return p.Sprintf("notify.error")
	default:
		return ""
	}
}

// FormatDuration renders an elapsed duration as compact hour, minute,
// second segments, omitting zero segments.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute) / time.Second

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}

// Welcome greets a chat on /start.
func Welcome(locale string) string {
	return printerFor(locale).Sprintf("reply.welcome")
}

// Help lists the available commands.
func Help(locale string) string {
	return printerFor(locale).Sprintf("reply.help")
}

// SetGameUsage explains the /setgame argument.
func SetGameUsage(locale string) string {
	return printerFor(locale).Sprintf("reply.setgame.usage")
}

// SetGameFetchFailed reports an unreachable or undecodable game resource.
func SetGameFetchFailed(locale, gameID string) string {
	return printerFor(locale).Sprintf("reply.setgame.fetch_failed", gameID)
}

// SetGameSuccess confirms a new monitoring session.
func SetGameSuccess(locale, gameID string, factions []string, interval time.Duration) string {
	p := printerFor(locale)
	nations := p.Sprintf("reply.setgame.no_humans")
	if len(factions) > 0 {
		nations = strings.Join(factions, ", ")
	}
	return p.Sprintf("reply.setgame.success", gameID, nations, int64(interval/time.Second))
}

// SetIntervalUsage explains the /setinterval argument.
func SetIntervalUsage(locale string) string {
	return printerFor(locale).Sprintf("reply.setinterval.usage")
}

// SetIntervalSuccess confirms the new poll cadence.
func SetIntervalSuccess(locale string, interval time.Duration) string {
	return printerFor(locale).Sprintf("reply.setinterval.success", int64(interval/time.Second))
}

// SubscribeUsage explains the /subscribe arguments.
func SubscribeUsage(locale string) string {
	return printerFor(locale).Sprintf("reply.subscribe.usage")
}

// SubscribeBadHandle rejects a handle without the @ prefix.
func SubscribeBadHandle(locale string) string {
	return printerFor(locale).Sprintf("reply.subscribe.bad_handle")
}

// SubscribeUnknownFaction rejects a nation missing from the roster.
func SubscribeUnknownFaction(locale string) string {
	return printerFor(locale).Sprintf("reply.subscribe.unknown_faction")
}

// SubscribeSuccess confirms a new binding.
func SubscribeSuccess(locale, faction, handle string) string {
	return printerFor(locale).Sprintf("reply.subscribe.success", faction, handle)
}

// UnsubscribeUsage explains the /unsubscribe argument.
func UnsubscribeUsage(locale string) string {
	return printerFor(locale).Sprintf("reply.unsubscribe.usage")
}

// UnsubscribeSuccess confirms a removed binding.
func UnsubscribeSuccess(locale, handle, faction string) string {
	return printerFor(locale).Sprintf("reply.unsubscribe.success", handle, faction)
}

// UnsubscribeNotFound reports a handle with no binding.
func UnsubscribeNotFound(locale, handle string) string {
	return printerFor(locale).Sprintf("reply.unsubscribe.not_found", handle)
}

// Pause confirms the new pause state. Resuming names the player whose
// turn is still open, pinging them when subscribed.
func Pause(locale string, result monitor.PauseResult) string {
	p := printerFor(locale)
	if result.Paused {
		return p.Sprintf("reply.pause.on")
	}
	text := p.Sprintf("reply.pause.off")
	if result.Waiting != nil {
		if result.Waiting.Handle != "" {
			text += p.Sprintf("reply.pause.waiting.ping", result.Waiting.Handle, result.Waiting.Faction)
		} else {
			text += p.Sprintf("reply.pause.waiting.idle", result.Waiting.Faction)
		}
	}
	return text
}

// StatusNoGame reports that no session is configured.
func StatusNoGame(locale string) string {
	return printerFor(locale).Sprintf("reply.status.no_game")
}

// Status renders the monitoring state summary.
func Status(locale string, report monitor.StatusReport) string {
	p := printerFor(locale)
	paused := p.Sprintf("reply.status.paused_no")
	if report.Paused {
		paused = p.Sprintf("reply.status.paused_yes")
	}
	var b strings.Builder
	b.WriteString(p.Sprintf("reply.status.header", report.GameID, paused))
	if report.Faction == "" {
		b.WriteString(p.Sprintf("reply.status.holder_unknown"))
		return b.String()
	}
	handle := report.Handle
	if handle == "" {
		handle = p.Sprintf("reply.status.not_subscribed")
	}
	b.WriteString(p.Sprintf("reply.status.holder", report.Faction, handle))
	return b.String()
}

// SubscriptionList renders the current faction-to-handle bindings.
func SubscriptionList(locale string, subs []monitor.Subscription) string {
	p := printerFor(locale)
	if len(subs) == 0 {
		return p.Sprintf("reply.list.empty")
	}
	var b strings.Builder
	b.WriteString(p.Sprintf("reply.list.title"))
	for _, sub := range subs {
		b.WriteString("\n")
		b.WriteString(sub.Faction)
		b.WriteString(" -> ")
		b.WriteString(sub.Handle)
	}
	return b.String()
}

// SetLangUsage explains the /setlang argument.
func SetLangUsage(locale string) string {
	return printerFor(locale).Sprintf("reply.setlang.usage")
}

// SetLangSuccess confirms the switch, speaking the new language.
func SetLangSuccess(locale string) string {
	return printerFor(locale).Sprintf("reply.setlang.success", LanguageName(locale), locale)
}

// HistoryUsage explains the /history argument.
func HistoryUsage(locale string) string {
	return printerFor(locale).Sprintf("reply.history.usage")
}

// History renders recent journal entries, newest first.
func History(locale string, entries []journal.Entry) string {
	p := printerFor(locale)
	if len(entries) == 0 {
		return p.Sprintf("reply.history.empty")
	}
	var b strings.Builder
	b.WriteString(p.Sprintf("reply.history.title"))
	for _, entry := range entries {
		b.WriteString("\n")
		b.WriteString(entry.CreatedAt.Format("2006-01-02 15:04"))
		b.WriteString(" ")
		b.WriteString(entry.Kind)
		if entry.Faction != "" {
			b.WriteString(" ")
			b.WriteString(entry.Faction)
		}
		if entry.Handle != "" {
			b.WriteString(" (")
			b.WriteString(entry.Handle)
			b.WriteString(")")
		}
		b.WriteString(" - ")
		b.WriteString(entry.Outcome)
	}
	return b.String()
}
