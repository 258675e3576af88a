package handler

import (
	"context"
	"strconv"
	"strings"

	"attendance-bot/internal/models"
	"attendance-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const pendingPageSize = 20

// showAllUsers показывает всех пользователей
func (h *Handler) showAllUsers(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	allUsers, err := h.userService.FormatAllUsers(ctx)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, allUsers)
}

// changeRole назначает или снимает администратора
func (h *Handler) changeRole(ctx context.Context, message *tgbotapi.Message, args string, role models.Role) {
	chatID := message.Chat.ID

	parts := commandArgs(args)
	if len(parts) != 1 {
		h.reply(chatID, "❌ Укажите ID чата пользователя. Пример: /promote 123456789")
		return
	}

	targetChatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Неверный формат ID. ID должен быть числом.")
		return
	}

	if err := h.userService.UpdateRole(ctx, chatID, targetChatID, role); err != nil {
		h.replyError(chatID, err)
		return
	}

	if role == models.RoleAdmin {
		h.reply(chatID, "✅ Пользователь назначен администратором.")
		h.reply(targetChatID, "👑 Вам выданы права администратора. Используйте /help для списка команд.")
		return
	}
	h.reply(chatID, "✅ Пользователь больше не администратор.")
}

// showPending присылает заявки на рассмотрении, каждую с кнопкой одобрения
func (h *Handler) showPending(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	admin := h.currentUser(ctx, chatID)
	if admin == nil {
		return
	}

	list, err := h.correctionService.ListPending(ctx, admin.ID, pendingPageSize)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	if len(list) == 0 {
		h.reply(chatID, "📭 Заявок на рассмотрении нет.")
		return
	}

	for _, c := range list {
		msg := tgbotapi.NewMessage(chatID, h.correctionService.FormatCorrection(c))
		msg.ReplyMarkup = telegram.ApproveKeyboard(c.ID)
		if _, err := h.bot.Send(msg); err != nil {
			h.logger.WithError(err).WithField("correction_id", c.ID).Error("Failed to send pending correction")
		}
	}
}

// approveCommand одобрение заявки командой /approve ID
func (h *Handler) approveCommand(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	parts := commandArgs(args)
	if len(parts) != 1 {
		h.reply(chatID, "❌ Укажите номер заявки. Пример: /approve 12")
		return
	}

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id == 0 {
		h.reply(chatID, "❌ Неверный номер заявки.")
		return
	}

	h.approveCorrection(ctx, chatID, uint(id))
}

// approveCorrection одобряет заявку от имени админа chatID и сообщает автору.
// Возвращает true при успехе.
func (h *Handler) approveCorrection(ctx context.Context, chatID int64, id uint) bool {
	admin := h.currentUser(ctx, chatID)
	if admin == nil {
		return false
	}

	approved, err := h.correctionService.Approve(ctx, admin.ID, id)
	if err != nil {
		h.replyError(chatID, err)
		return false
	}

	h.reply(chatID, "✅ Заявка одобрена, запись обновлена.\n\n"+h.correctionService.FormatCorrection(approved))

	owner, err := h.userService.GetUserByID(ctx, approved.UserID)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"correction_id": approved.ID,
			"user_id":       approved.UserID,
		}).Warn("Failed to load correction owner")
		return true
	}
	if owner.ChatID != chatID {
		h.reply(owner.ChatID, "✅ Ваша заявка одобрена.\n\n"+h.correctionService.FormatCorrection(approved))
	}

	return true
}

func (h *Handler) requireAdmin(ctx context.Context, chatID int64) bool {
	isAdmin, err := h.userService.IsAdmin(ctx, chatID)
	if err != nil {
		h.replyError(chatID, err)
		return false
	}

	if !isAdmin {
		h.logger.WithField("chat_id", chatID).Warn("Unauthorized access to admin command")
		h.reply(chatID, "❌ Доступ запрещен. Эта команда только для администраторов.")
		return false
	}
	return true
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
