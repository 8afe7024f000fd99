package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Ukrainian

	message.SetString(lang, "notify.turn.ping", "🚨 <b>%s</b>. Ваш хід, %s!")
	message.SetString(lang, "notify.turn", "🚨 <b>НОВИЙ ХІД!</b> Нація <b>%s</b>!")
	message.SetString(lang, "notify.reminder.ping", "🔔 <b>НАГАДУВАННЯ!</b> %s, зробіть свій хід. (Пройшло: %s)")
	message.SetString(lang, "notify.reminder", "🔔 <b>НАГАДУВАННЯ!</b> Хід нації <b>%s</b> досі очікує. (Пройшло: %s)")
	message.SetString(lang, "notify.error", "⚠️ Не можу дістатися сервера гри. Сповіщення призупинено тимчасово.")

	message.SetString(lang, "reply.welcome", "<b>👋 Ласкаво просимо до Turnwatch!</b>\nВикористайте /help для команд.")
	message.SetString(lang, "reply.help", "<b>Команди:</b>\n"+
		"<b>/setgame</b> <Game_ID> - почати моніторинг гри\n"+
		"<b>/setinterval</b> <секунди> - змінити інтервал опитування\n"+
		"<b>/subscribe</b> <Нація> @username - прив'язати гравця до нації\n"+
		"<b>/unsubscribe</b> @username - видалити підписку\n"+
		"<b>/list</b> - показати підписки\n"+
		"<b>/status</b> - показати стан моніторингу\n"+
		"<b>/pause</b> - призупинити або відновити сповіщення\n"+
		"<b>/history</b> [кількість] - показати останні сповіщення\n"+
		"<b>/setlang</b> en|uk - змінити мову\n"+
		"<b>/help</b> - показати цю довідку")

	message.SetString(lang, "reply.setgame.usage", "Будь ласка, вкажіть ID гри. Формат: /setgame <Game_ID>")
	message.SetString(lang, "reply.setgame.fetch_failed", "❌ Не вдалося отримати дані для ID %s.")
	message.SetString(lang, "reply.setgame.success", "✅ Моніторинг встановлено.\n<b>ID:</b> %s\n<b>Нації:</b> %s\nІнтервал моніторингу: %dс")
	message.SetString(lang, "reply.setgame.no_humans", "Не знайдено гравців-людей.")

	message.SetString(lang, "reply.setinterval.usage", "Вкажіть інтервал у секундах. Приклад: /setinterval 120")
	message.SetString(lang, "reply.setinterval.success", "Інтервал моніторингу встановлено на %d секунд.")

	message.SetString(lang, "reply.subscribe.usage", "Формат: /subscribe <Нація> @username")
	message.SetString(lang, "reply.subscribe.bad_handle", "Username повинен починатися з @.")
	message.SetString(lang, "reply.subscribe.unknown_faction", "Націю не знайдено в поточній грі. Виконайте /setgame, щоб оновити список.")
	message.SetString(lang, "reply.subscribe.success", "✅ Підписка збережена: %s -> %s")

	message.SetString(lang, "reply.unsubscribe.usage", "Вкажіть @username для видалення підписки. Формат: /unsubscribe @username")
	message.SetString(lang, "reply.unsubscribe.success", "✅ Підписка видалена: %s (Нація: %s)")
	message.SetString(lang, "reply.unsubscribe.not_found", "Логін %s не знайдений у підписках.")

	message.SetString(lang, "reply.pause.on", "⏸️ Нагадування призупинено.")
	message.SetString(lang, "reply.pause.off", "▶️ Нагадування відновлено!")
	message.SetString(lang, "reply.pause.waiting.ping", " %s, ваш хід (Нація %s).")
	message.SetString(lang, "reply.pause.waiting.idle", " Хід нації %s досі очікує.")

	message.SetString(lang, "reply.status.no_game", "❗ Немає встановленої гри. Виконайте /setgame <Game_ID>.")
	message.SetString(lang, "reply.status.header", "<b>Статус</b>\n<b>Game ID:</b> %s\n<b>Пауза сповіщень:</b> %s\n")
	message.SetString(lang, "reply.status.paused_yes", "Так")
	message.SetString(lang, "reply.status.paused_no", "Ні")
	message.SetString(lang, "reply.status.holder", "<b>Останній/поточний гравець:</b> %s (%s)\n")
	message.SetString(lang, "reply.status.holder_unknown", "<b>Останній/поточний гравець:</b> невідомо\n")
	message.SetString(lang, "reply.status.not_subscribed", "не підписано")

	message.SetString(lang, "reply.list.empty", "Підписок немає.")
	message.SetString(lang, "reply.list.title", "<b>Підписки:</b>")

	message.SetString(lang, "reply.setlang.usage", "Вкажіть мову: /setlang en або /setlang uk")
	message.SetString(lang, "reply.setlang.success", "✅ Мову встановлено на %s (%s).")
	message.SetString(lang, "reply.lang.en", "Англійська")
	message.SetString(lang, "reply.lang.uk", "Українська")

	message.SetString(lang, "reply.history.usage", "Формат: /history [кількість]")
	message.SetString(lang, "reply.history.title", "<b>Останні сповіщення:</b>")
	message.SetString(lang, "reply.history.empty", "Сповіщень ще немає.")
}
