package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance-bot/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	stateAwaitingFirstName = "awaiting_first_name"
	stateAwaitingLastName  = "awaiting_last_name:"
)

// startRegistration начинает процесс регистрации
func (h *Handler) startRegistration(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	// Проверяем, есть ли уже профиль
	if user, err := h.userService.GetUser(ctx, chatID); err == nil && user != nil {
		h.reply(chatID, "❌ Вы уже зарегистрированы!\nИспользуйте /me чтобы посмотреть профиль.")
		return
	}

	h.setState(chatID, stateAwaitingFirstName)

	h.reply(chatID, `👤 Регистрация

Шаг 1 из 2:
✏️ Пожалуйста, отправьте ваше имя:`)
}

// handleProfileState обрабатывает шаги регистрации
func (h *Handler) handleProfileState(ctx context.Context, message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch {
	case state == stateAwaitingFirstName:
		if text == "" {
			h.reply(chatID, "✏️ Имя не может быть пустым, отправьте ваше имя:")
			return
		}
		h.setState(chatID, stateAwaitingLastName+text)
		h.reply(chatID, fmt.Sprintf(`Шаг 2 из 2:
✅ Имя сохранено: %s
✏️ Теперь отправьте вашу фамилию (если нет фамилии, отправьте "-"):`, text))

	case strings.HasPrefix(state, stateAwaitingLastName):
		firstName := strings.TrimPrefix(state, stateAwaitingLastName)
		lastName := text
		if lastName == "-" {
			lastName = ""
		}

		username := ""
		if message.From != nil {
			username = message.From.UserName
		}

		h.setState(chatID, "")

		user, err := h.userService.CreateUser(ctx, chatID, username, firstName, lastName)
		if err != nil {
			if errors.Is(err, repository.ErrUserExists) {
				h.reply(chatID, "❌ Вы уже зарегистрированы!")
				return
			}
			h.replyError(chatID, err)
			return
		}

		h.reply(chatID, "✅ Регистрация завершена!\n\n"+h.userService.FormatUserInfo(user))

	default:
		h.setState(chatID, "")
	}
}

// showProfile показывает профиль пользователя
func (h *Handler) showProfile(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(ctx, chatID)
	if user == nil {
		return
	}

	h.reply(chatID, h.userService.FormatUserInfo(user))
}
