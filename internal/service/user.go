package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
	"attendance-bot/pkg/logger"

	"github.com/sirupsen/logrus"
)

type UserService struct {
	repo   repository.UserRepository
	logger *logrus.Logger
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo, logger: logger.New()}
}

// CreateUser создает нового пользователя с ролью client по умолчанию
func (s *UserService) CreateUser(ctx context.Context, chatID int64, username, firstName, lastName string) (*models.User, error) {
	if firstName == "" {
		return nil, ErrEmptyName
	}

	user := &models.User{
		ChatID:    chatID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleClient,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return user, nil
}

// GetUser возвращает пользователя по chatID
func (s *UserService) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// GetUserByID возвращает пользователя по ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// UpdateRole меняет роль пользователя (только для админов)
func (s *UserService) UpdateRole(ctx context.Context, adminChatID, targetChatID int64, role models.Role) error {
	admin, err := s.repo.GetByChatID(ctx, adminChatID)
	if err != nil {
		return fmt.Errorf("ошибка проверки админа: %w", err)
	}

	if admin == nil || !admin.IsAdmin() {
		return ErrForbidden
	}

	target, err := s.repo.GetByChatID(ctx, targetChatID)
	if err != nil {
		return fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if target == nil {
		return ErrUserNotFound
	}

	if err := s.repo.UpdateRole(ctx, targetChatID, role); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"admin_chat_id":  adminChatID,
		"target_chat_id": targetChatID,
		"role":           role,
	}).Info("Role changed")

	return nil
}

// FormatUserInfo форматирует информацию о пользователе для вывода
func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Профиль пользователя:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 ID чата: %d", user.ChatID))

	if user.Username != "" {
		lines = append(lines, fmt.Sprintf("📛 Никнейм: @%s", user.Username))
	}

	lines = append(lines, fmt.Sprintf("👨‍💼 Имя: %s", user.FirstName))

	if user.LastName != "" {
		lines = append(lines, fmt.Sprintf("👨‍💼 Фамилия: %s", user.LastName))
	}

	roleEmoji := "👤"
	if user.IsAdmin() {
		roleEmoji = "👑"
	}
	lines = append(lines, fmt.Sprintf("%s Роль: %s", roleEmoji, string(user.Role)))

	return strings.Join(lines, "\n")
}

// GetAdmins возвращает всех администраторов
func (s *UserService) GetAdmins(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAdmins(ctx)
}

// FormatAllUsers форматирует список всех пользователей
func (s *UserService) FormatAllUsers(ctx context.Context) (string, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "📭 Список пользователей пуст.", nil
	}

	var lines []string
	lines = append(lines, "📋 Все пользователи:")
	lines = append(lines, "")

	for i, user := range users {
		roleEmoji := "👤"
		if user.IsAdmin() {
			roleEmoji = "👑"
		}
		lines = append(lines, fmt.Sprintf("%d. %s %s - ID: %d", i+1, roleEmoji, user.DisplayName(), user.ChatID))
	}

	total, admins, err := s.repo.GetStats(ctx)
	if err == nil {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("📊 Всего пользователей: %d", total))
		lines = append(lines, fmt.Sprintf("👑 Администраторов: %d", admins))
	}

	return strings.Join(lines, "\n"), nil
}

// IsAdmin проверяет, является ли пользователь администратором
func (s *UserService) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return false, err
	}

	return user != nil && user.IsAdmin(), nil
}

// InitializeAdmin назначает администратора из конфига
func (s *UserService) InitializeAdmin(ctx context.Context, adminChatID int64) error {
	if adminChatID == 0 {
		return nil // Админ не задан в конфиге
	}

	existing, err := s.repo.GetByChatID(ctx, adminChatID)
	if err != nil {
		return err
	}

	if existing != nil {
		return s.repo.UpdateRole(ctx, adminChatID, models.RoleAdmin)
	}

	return s.repo.Create(ctx, &models.User{
		ChatID:    adminChatID,
		Username:  "admin",
		FirstName: "Администратор",
		Role:      models.RoleAdmin,
	})
}
