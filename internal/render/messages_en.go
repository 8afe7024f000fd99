package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notify.turn.ping", "🚨 <b>%s</b>. It's your turn, %s!")
	message.SetString(lang, "notify.turn", "🚨 <b>NEW TURN!</b> Nation <b>%s</b>!")
	message.SetString(lang, "notify.reminder.ping", "🔔 <b>REMINDER!</b> %s, please take your turn. (Elapsed: %s)")
	message.SetString(lang, "notify.reminder", "🔔 <b>REMINDER!</b> Nation <b>%s</b> turn is waiting. (Elapsed: %s)")
	message.SetString(lang, "notify.error", "⚠️ Cannot reach the game server. Notifications paused temporarily.")

	message.SetString(lang, "reply.welcome", "<b>👋 Welcome to Turnwatch!</b>\nUse /help for commands.")
	message.SetString(lang, "reply.help", "<b>Commands:</b>\n"+
		"<b>/setgame</b> <Game_ID> - start monitoring a game\n"+
		"<b>/setinterval</b> <seconds> - change the polling interval\n"+
		"<b>/subscribe</b> <Nation> @username - bind a player to a nation\n"+
		"<b>/unsubscribe</b> @username - remove a subscription\n"+
		"<b>/list</b> - show subscriptions\n"+
		"<b>/status</b> - show monitoring status\n"+
		"<b>/pause</b> - pause or resume notifications\n"+
		"<b>/history</b> [count] - show recent notifications\n"+
		"<b>/setlang</b> en|uk - switch language\n"+
		"<b>/help</b> - show this help")

	message.SetString(lang, "reply.setgame.usage", "Please specify the Game ID. Format: /setgame <Game_ID>")
	message.SetString(lang, "reply.setgame.fetch_failed", "❌ Failed to fetch data for ID %s.")
	message.SetString(lang, "reply.setgame.success", "✅ Monitoring established.\n<b>ID:</b> %s\n<b>Nations:</b> %s\nMonitoring interval: %ds")
	message.SetString(lang, "reply.setgame.no_humans", "No human players found.")

	message.SetString(lang, "reply.setinterval.usage", "Specify interval in seconds. Example: /setinterval 120")
	message.SetString(lang, "reply.setinterval.success", "Monitoring interval set to %d seconds.")

	message.SetString(lang, "reply.subscribe.usage", "Format: /subscribe <Nation> @username")
	message.SetString(lang, "reply.subscribe.bad_handle", "Username must start with @.")
	message.SetString(lang, "reply.subscribe.unknown_faction", "Nation not found in the current game. Use /setgame to refresh the list.")
	message.SetString(lang, "reply.subscribe.success", "✅ Subscription saved: %s -> %s")

	message.SetString(lang, "reply.unsubscribe.usage", "Specify @username to remove subscription. Format: /unsubscribe @username")
	message.SetString(lang, "reply.unsubscribe.success", "✅ Subscription removed: %s (Nation: %s)")
	message.SetString(lang, "reply.unsubscribe.not_found", "Login %s not found in subscriptions.")

	message.SetString(lang, "reply.pause.on", "⏸️ Reminders paused.")
	message.SetString(lang, "reply.pause.off", "▶️ Reminders resumed!")
	message.SetString(lang, "reply.pause.waiting.ping", " %s, it's your turn (Nation %s).")
	message.SetString(lang, "reply.pause.waiting.idle", " Nation %s's turn is still waiting.")

	message.SetString(lang, "reply.status.no_game", "❗ No game set. Use /setgame <Game_ID>.")
	message.SetString(lang, "reply.status.header", "<b>Status</b>\n<b>Game ID:</b> %s\n<b>Notifications paused:</b> %s\n")
	message.SetString(lang, "reply.status.paused_yes", "Yes")
	message.SetString(lang, "reply.status.paused_no", "No")
	message.SetString(lang, "reply.status.holder", "<b>Last/current player:</b> %s (%s)\n")
	message.SetString(lang, "reply.status.holder_unknown", "<b>Last/current player:</b> unknown\n")
	message.SetString(lang, "reply.status.not_subscribed", "not subscribed")

	message.SetString(lang, "reply.list.empty", "No subscriptions.")
	message.SetString(lang, "reply.list.title", "<b>Subscriptions:</b>")

	message.SetString(lang, "reply.setlang.usage", "Specify the language: /setlang en or /setlang uk")
	message.SetString(lang, "reply.setlang.success", "✅ Language set to %s (%s).")
	message.SetString(lang, "reply.lang.en", "English")
	message.SetString(lang, "reply.lang.uk", "Ukrainian")

	message.SetString(lang, "reply.history.usage", "Format: /history [count]")
	message.SetString(lang, "reply.history.title", "<b>Recent notifications:</b>")
	message.SetString(lang, "reply.history.empty", "No notifications recorded yet.")
}
