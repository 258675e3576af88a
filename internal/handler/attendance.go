package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultHistoryLimit = 10

// clockIn отмечает начало рабочего дня
func (h *Handler) clockIn(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	attendance, err := h.attendanceService.ClockIn(ctx, user.ID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	loc := h.attendanceService.Location()
	h.reply(chatID, fmt.Sprintf(`✅ Рабочий день начат!

⏰ Время начала: %s
📅 Дата: %s

💡 Перерыв: /breakstart, конец дня: /out`,
		attendance.ClockIn.In(loc).Format("15:04"),
		attendance.Date.Format("02.01.2006")))
}

// clockOut отмечает конец рабочего дня
func (h *Handler) clockOut(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	attendance, err := h.attendanceService.ClockOut(ctx, user.ID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, "✅ Рабочий день завершен!\n\n"+h.attendanceService.FormatAttendance(attendance)+
		fmt.Sprintf("\n\n✏️ Ошиблись со временем? /correct %d", attendance.ID))
}

func (h *Handler) startBreak(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	if _, err := h.attendanceService.StartBreak(ctx, user.ID); err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, "☕ Перерыв начат в "+h.attendanceService.Now().Format("15:04")+". Завершить: /breakend")
}

func (h *Handler) endBreak(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	if _, err := h.attendanceService.EndBreak(ctx, user.ID); err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, "✅ Перерыв завершен в "+h.attendanceService.Now().Format("15:04"))
}

// showToday показывает сегодняшний рабочий день
func (h *Handler) showToday(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	attendance, err := h.attendanceService.Today(ctx, user.ID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	if attendance == nil {
		h.reply(chatID, "📭 Сегодня вы еще не отмечались. Начать день: /in")
		return
	}

	h.reply(chatID, h.attendanceService.FormatAttendance(attendance))
}

// showHistory последние записи; /history [N]
func (h *Handler) showHistory(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	limit := defaultHistoryLimit
	if arg := strings.TrimSpace(args); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 || n > 100 {
			h.reply(chatID, "❌ Укажите число от 1 до 100. Пример: /history 5")
			return
		}
		limit = n
	}

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	attendances, err := h.attendanceService.History(ctx, user.ID, limit)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, h.attendanceService.FormatHistory(attendances))
}

// showMonth итоги месяца; /month [мм.гггг], без аргумента текущий месяц
func (h *Handler) showMonth(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	now := h.attendanceService.Now()
	year, month := now.Year(), int(now.Month())
	if arg := strings.TrimSpace(args); arg != "" {
		t, err := time.Parse("01.2006", arg)
		if err != nil {
			h.reply(chatID, "❌ Неверный формат месяца. Пример: /month 03.2024")
			return
		}
		year, month = t.Year(), int(t.Month())
	}

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	attendances, err := h.attendanceService.Month(ctx, user.ID, year, month)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, h.attendanceService.FormatMonth(attendances, year, month))
}
