package handler

import (
	"context"
	"strings"
	"sync"
	"time"

	"attendance-bot/internal/config"
	"attendance-bot/internal/correction"
	"attendance-bot/internal/service"
	"attendance-bot/pkg/logger"
	"attendance-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender то, что обработчик использует из *tgbotapi.BotAPI
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

const requestTimeout = 10 * time.Second

type Handler struct {
	bot               Sender
	userService       *service.UserService
	attendanceService *service.AttendanceService
	correctionService *service.CorrectionService
	config            *config.Config
	logger            *logrus.Logger

	mu         sync.Mutex
	userStates map[int64]string
	sessions   map[int64]*correction.Session
}

func NewHandler(
	bot Sender,
	userService *service.UserService,
	attendanceService *service.AttendanceService,
	correctionService *service.CorrectionService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		bot:               bot,
		userService:       userService,
		attendanceService: attendanceService,
		correctionService: correctionService,
		config:            cfg,
		logger:            logger.New(),
		userStates:        make(map[int64]string),
		sessions:          make(map[int64]*correction.Session),
	}
}

// HandleUpdates читает обновления, пока канал не закрыт или ctx не отменен
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate обрабатывает одно обновление
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.handleMessage(ctx, update.Message)
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Отвечаем на callback (убираем "часики" у кнопки)
	defer h.bot.Request(tgbotapi.NewCallback(callback.ID, ""))

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	if id, ok := telegram.ParseApproveCorrection(callback.Data); ok {
		if h.approveCorrection(ctx, chatID, id) {
			// Убираем кнопку, чтобы не одобрять повторно
			edit := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
			h.bot.Request(edit)
		}
		return
	}

	h.logger.WithField("data", callback.Data).Warn("Unknown callback")
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From != nil {
		h.logger.Infof("[%s] %s", message.From.UserName, message.Text)
	}

	chatID := message.Chat.ID

	// Пользователь в процессе регистрации
	if state, exists := h.state(chatID); exists && !message.IsCommand() {
		h.handleProfileState(ctx, message, state)
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.reply(chatID, "🤔 Я понимаю только команды. Используйте /help для списка команд.")
}

func (h *Handler) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) state(chatID int64) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.userStates[chatID]
	return state, ok
}

func (h *Handler) setState(chatID int64, state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if state == "" {
		delete(h.userStates, chatID)
		return
	}
	h.userStates[chatID] = state
}

func (h *Handler) session(chatID int64) *correction.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[chatID]
}

func (h *Handler) setSession(chatID int64, s *correction.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s == nil {
		delete(h.sessions, chatID)
		return
	}
	h.sessions[chatID] = s
}

func commandArgs(args string) []string {
	return strings.Fields(args)
}
