package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"attendance-bot/internal/correction"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// openCorrection открывает запись для исправления; /correct ID
func (h *Handler) openCorrection(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	parts := commandArgs(args)
	if len(parts) != 1 {
		h.reply(chatID, "❌ Укажите номер записи. Пример: /correct 12\nНомера записей есть в /history")
		return
	}
	attendanceID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || attendanceID == 0 {
		h.reply(chatID, "❌ Неверный номер записи.")
		return
	}

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	session, err := h.correctionService.OpenSession(ctx, user.ID, uint(attendanceID))
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.setSession(chatID, session)

	h.reply(chatID, fmt.Sprintf("✏️ Исправление записи №%d\n\n%s\n\n%s",
		session.AttendanceID, formatBuffer(session.Buffer), editHint))
}

const editHint = `💡 Изменить поле: /set поле ЧЧ:ММ (пустое значение: /set поле -)
Причина: /reason текст
Проверить: /check, отправить: /submit, выйти: /cancel`

// setField меняет поле буфера; /set path value
func (h *Handler) setField(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	session := h.activeSession(chatID)
	if session == nil {
		return
	}

	parts := commandArgs(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Пример: /set requested_end_time 18:30\n\nПоля:\n"+strings.Join(session.Buffer.Paths(), "\n"))
		return
	}

	path, value := parts[0], parts[1]
	if path == correction.PathReason {
		h.reply(chatID, "❌ Причину указывайте командой /reason текст")
		return
	}
	if value == "-" {
		value = ""
	}

	if err := session.Set(path, value); err != nil {
		if errors.Is(err, correction.ErrUnknownPath) {
			h.reply(chatID, "❌ Нет такого поля. Доступные поля:\n"+strings.Join(session.Buffer.Paths(), "\n"))
			return
		}
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, "✅ "+path+" = "+display(value))
}

// setReason причина исправления; /reason текст
func (h *Handler) setReason(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	session := h.activeSession(chatID)
	if session == nil {
		return
	}

	if err := session.Set(correction.PathReason, strings.TrimSpace(args)); err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, "✅ Причина сохранена")
}

// checkCorrection проверяет буфер, ничего не сохраняя
func (h *Handler) checkCorrection(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	session := h.activeSession(chatID)
	if session == nil {
		return
	}
	if h.syncSession(ctx, chatID, session) {
		return
	}

	issues := h.correctionService.Check(session.Buffer)
	if !issues.Empty() {
		h.reply(chatID, service.FormatIssues(issues))
		return
	}

	h.reply(chatID, "✅ Ошибок нет. Отправить заявку: /submit")
}

// submitCorrection отправляет заявку на рассмотрение
func (h *Handler) submitCorrection(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	session := h.activeSession(chatID)
	if session == nil {
		return
	}
	if h.syncSession(ctx, chatID, session) {
		return
	}

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	req, err := h.correctionService.SubmitBuffer(ctx, user.ID, session.AttendanceID, session.Buffer)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.setSession(chatID, nil)
	h.reply(chatID, "📨 Заявка отправлена администратору.\n\n"+h.correctionService.FormatCorrection(req))
}

func (h *Handler) cancelCorrection(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.session(chatID) == nil {
		h.reply(chatID, "ℹ️ Нет открытого исправления.")
		return
	}

	h.setSession(chatID, nil)
	h.reply(chatID, "❌ Исправление отменено.")
}

// showMyRequests заявки пользователя
func (h *Handler) showMyRequests(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	list, err := h.correctionService.ListByUser(ctx, user.ID, "")
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	if len(list) == 0 {
		h.reply(chatID, "📭 Заявок пока нет.")
		return
	}

	parts := make([]string, 0, len(list))
	for _, c := range list {
		parts = append(parts, h.correctionService.FormatCorrection(c))
	}
	h.reply(chatID, strings.Join(parts, "\n\n"))
}

func (h *Handler) activeSession(chatID int64) *correction.Session {
	session := h.session(chatID)
	if session == nil {
		h.reply(chatID, "ℹ️ Сначала откройте запись: /correct ID")
	}
	return session
}

// syncSession сверяет сессию с записью. true значит, что ответ уже отправлен
// и команду выполнять не нужно.
func (h *Handler) syncSession(ctx context.Context, chatID int64, session *correction.Session) bool {
	changed, err := h.correctionService.Sync(ctx, session)
	if err != nil {
		h.setSession(chatID, nil)
		h.replyError(chatID, err)
		return true
	}
	if changed {
		h.reply(chatID, "⚠️ Запись изменилась, правки сброшены.\n\n"+formatBuffer(session.Buffer)+"\n\n"+editHint)
		return true
	}
	return false
}

func formatBuffer(buf correction.EditBuffer) string {
	lines := make([]string, 0, len(buf.Paths()))
	for _, path := range buf.Paths() {
		value, _ := buf.Get(path)
		lines = append(lines, path+": "+display(value))
	}
	return joinLines(lines)
}

func display(value string) string {
	if value == "" {
		return "—"
	}
	return value
}
