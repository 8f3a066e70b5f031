package constants

// User-facing texts of the bot. Format verbs are filled by the messages package.

// Help
const (
	// MsgHelpHeader carries the current time in the reference zone.
	MsgHelpHeader = "Привет! Текущее время %s: %s\n\n"

	MsgHelpBody = "Я — ваш личный планировщик постов в Telegram-канал.\n\n" +
		"Как использовать:\n" +
		"1. Напишите пост (текст, фото, видео, эмодзи — всё сразу)\n" +
		"2. Укажите время публикации\n\n" +
		"Поддерживаемые форматы времени:\n" +
		"• через 15 мин\n" +
		"• через 2 часа\n" +
		"• сегодня 8:00\n" +
		"• в 15:30\n" +
		"• 8:00 (сегодня или завтра)\n" +
		"• завтра 7:00\n" +
		"• 31.12.2026 23:59\n" +
		"• каждый день в 10:00\n" +
		"• каждый понедельник в 9:00\n" +
		"• 1 числа в 12:00 (ежемесячно)\n\n" +
		"Команды:\n" +
		"/list — посмотреть очередь постов\n" +
		"/status — статус и текущий канал\n" +
		"/setchannel — сменить канал публикации\n" +
		"/cancel <номер> — отменить пост\n" +
		"/cancel — прервать текущее действие\n" +
		"/now — опубликовать текущий пост сразу\n" +
		"/help — эта справка"
)

// Post intake
const (
	MsgPostAccepted = "Пост принят: \"%s\"\nТеперь укажите время публикации."
	MsgQueueFull    = "Очередь полная (максимум %d постов)."

	MsgScheduledHeader   = "Принято в работу! ✅\n"
	MsgScheduledAt       = "Запланировано на %s (%s)\n"
	MsgScheduledLeft     = "Осталось: %d ч %d мин\n"
	MsgScheduledPosition = "Позиция в очереди: %d"
	MsgScheduledRepeat   = "\nПовтор: %s"
)

// Time parse errors
const (
	MsgMissingQuantity = "Не понял количество минут или часов."
	MsgMissingWeekday  = "Не понял день недели, например: каждый понедельник в 10:00"
	MsgMissingTime     = "Укажите время в формате часы:минуты, например: сегодня 9:00 или 9:00"
	MsgPastInstant     = "Время уже прошло или равно текущему!"
	MsgUnrecognized    = "Не понял время.\n" +
		"Примеры:\n" +
		"через 15 мин\n" +
		"сегодня 8:07\n" +
		"в 8:07\n" +
		"8:07\n" +
		"завтра 7:00\n" +
		"18.12.2026 14:30\n" +
		"каждый день в 10:00"
)

// Queue commands
const (
	MsgQueueEmpty      = "Очередь пуста."
	MsgQueueHeader     = "Ваша очередь постов:\n\n"
	MsgQueueItem       = "%d. %s — %s%s\n"
	MsgQueueItemRepeat = " 🔁"

	MsgStatus = "Статус бота:\n" +
		"Текущий канал: %s\n" +
		"Постов в очереди: %d\n" +
		"Максимум постов в очереди: %d"

	MsgCancelled      = "Пост №%d успешно отменён."
	MsgCancelBadIndex = "Неверный номер поста."
	MsgCancelUsage    = "Использование: /cancel <номер из /list>"
	MsgFlowAborted    = "Текущее действие отменено."
)

// Channel designation
const (
	MsgSetChannelPrompt = "Для смены канала перешлите мне любое сообщение из нужного канала."
	MsgChannelChanged   = "Канал успешно изменён на %s"
	MsgChannelRejected  = "Не удалось распознать канал. Перешлите сообщение из нужного канала."
	MsgChannelNotSet    = "не задан"
)

// Publication
const (
	MsgNothingPending   = "Сначала отправьте пост для публикации."
	MsgPublishedNow     = "Пост опубликован сразу в канал!\n%s"
	MsgPublished        = "Пост опубликован!\n%s\nВремя: %s %s"
	MsgPublishFailed    = "Не удалось опубликовать пост \"%s\": %s"
	MsgPublishFailedNow = "Не удалось опубликовать пост: %s"
	MsgPublishBusy      = "Пост как раз публикуется."
)

// Delivery failure reasons
const (
	MsgReasonUnreachable = "канал недоступен"
	MsgReasonForbidden   = "у бота нет прав на публикацию в канале"
	MsgReasonPayloadGone = "исходное сообщение удалено"
	MsgReasonUnknown     = "неизвестная ошибка"
)

// Inline buttons
const (
	MsgButtonPublish = "Опубликовать сейчас"
	MsgButtonCancel  = "Отменить"
	MsgButtonRetime  = "Изменить время"

	MsgButtonPublished   = "\n\nПост опубликован сейчас!\n%s"
	MsgButtonCancelled   = "\n\nПост отменён"
	MsgRetimePrompt      = "\n\nНапишите новое время для этого поста"
	MsgButtonProcessed   = "Пост уже обработан"
	MsgButtonUnknown     = "Неизвестное действие"
	MsgAccessDenied      = "Доступ запрещён."
	MsgInternalError     = "Что-то пошло не так, попробуйте ещё раз."
	MsgRecurrenceDaily   = "каждый день в %02d:%02d"
	MsgRecurrenceWeekly  = "%s в %02d:%02d"
	MsgRecurrenceMonthly = "каждое %d число в %02d:%02d"
)

// Config messages
const (
	// MsgConfigLoadError is the error message when configuration loading fails.
	MsgConfigLoadError = "❌ Failed to load configuration: %v\n"

	// MsgConfigValidationError is the header for configuration validation errors.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValidatePrefix prefixes every validation error line.
	MsgConfigValidatePrefix = "  %s\n"

	// MsgConfigValid is printed when configuration passes validation.
	MsgConfigValid = "✅ Configuration is valid"
)
