package handler

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"attendance-bot/internal/correction"
	"attendance-bot/internal/models"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `📋 Доступные команды:

👤 Профиль:
/register - Зарегистрироваться
/me - Показать мой профиль

⏰ Учет рабочего времени:
/in - Начать рабочий день
/out - Завершить рабочий день
/breakstart - Начать перерыв
/breakend - Завершить перерыв
/today - Сегодняшний рабочий день
/history [N] - Последние N записей (по умолчанию 10)
/month [мм.гггг] - Записи за месяц

✏️ Исправление записи:
/correct ID - Открыть запись для исправления
/set поле значение - Изменить поле (например /set requested_start_time 09:00)
/reason текст - Указать причину
/check - Проверить исправление
/submit - Отправить заявку
/cancel - Закрыть редактирование
/requests - Мои заявки

🛠 Утилиты:
/start - Начать работу с ботом
/help - Показать это сообщение`

const adminHelpText = `👑 Администрирование:
/pending - Заявки на рассмотрении
/approve ID - Одобрить заявку
/users - Все пользователи
/promote CHAT_ID - Назначить администратора
/demote CHAT_ID - Снять администратора`

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start", "help":
		h.sendHelpMessage(ctx, message)

	// Профиль
	case "register":
		h.startRegistration(ctx, message)
	case "me":
		h.showProfile(ctx, message)

	// Учет времени
	case "in":
		h.clockIn(ctx, message)
	case "out":
		h.clockOut(ctx, message)
	case "breakstart":
		h.startBreak(ctx, message)
	case "breakend":
		h.endBreak(ctx, message)
	case "today":
		h.showToday(ctx, message)
	case "history":
		h.showHistory(ctx, message, args)
	case "month":
		h.showMonth(ctx, message, args)

	// Исправления
	case "correct":
		h.openCorrection(ctx, message, args)
	case "set":
		h.setField(ctx, message, args)
	case "reason":
		h.setReason(ctx, message, args)
	case "check":
		h.checkCorrection(ctx, message)
	case "submit":
		h.submitCorrection(ctx, message)
	case "cancel":
		h.cancelCorrection(message)
	case "requests":
		h.showMyRequests(ctx, message)

	// Администрирование
	case "pending":
		h.showPending(ctx, message)
	case "approve":
		h.approveCommand(ctx, message, args)
	case "users":
		h.showAllUsers(ctx, message)
	case "promote":
		h.changeRole(ctx, message, args, models.RoleAdmin)
	case "demote":
		h.changeRole(ctx, message, args, models.RoleClient)

	default:
		h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
	}
}

func (h *Handler) sendHelpMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := helpText

	if isAdmin, err := h.userService.IsAdmin(ctx, chatID); err == nil && isAdmin {
		text += "\n\n" + adminHelpText
		if h.config != nil && h.config.BaseAdminChatID != 0 {
			text += fmt.Sprintf("\n\n🔧 ID главного администратора: %d", h.config.BaseAdminChatID)
		}
	}

	h.reply(chatID, text)
}

// currentUser пользователь чата; при ошибке сам отвечает в чат и возвращает nil
func (h *Handler) currentUser(ctx context.Context, chatID int64) *models.User {
	user, err := h.userService.GetUser(ctx, chatID)
	if err != nil {
		h.replyError(chatID, err)
		return nil
	}
	return user
}

// replyError переводит ошибку сервиса в сообщение пользователю
func (h *Handler) replyError(chatID int64, err error) {
	var ve *correction.ValidationError

	switch {
	case errors.As(err, &ve):
		h.reply(chatID, service.FormatIssues(ve.Issues))
	case errors.Is(err, service.ErrUserNotFound):
		h.reply(chatID, "❌ Профиль не найден.\nИспользуйте /register чтобы зарегистрироваться.")
	case errors.Is(err, correction.ErrAlreadyPending),
		errors.Is(err, correction.ErrNotEditable),
		errors.Is(err, correction.ErrNotApprovable),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAttendanceNotFound),
		errors.Is(err, service.ErrCorrectionNotFound),
		errors.Is(err, service.ErrAlreadyWorking),
		errors.Is(err, service.ErrAlreadyClockedToday),
		errors.Is(err, service.ErrNotWorking),
		errors.Is(err, service.ErrRestInProgress),
		errors.Is(err, service.ErrNoOpenRest):
		h.reply(chatID, "❌ "+capitalize(err.Error()))
	default:
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Command failed")
		h.reply(chatID, "❌ Операция не выполнена. Попробуйте позже.")
	}
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
