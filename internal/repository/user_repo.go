package repository

import (
	"context"
	"errors"

	"attendance-bot/internal/models"
	"attendance-bot/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, chatID int64, role models.Role) error
	GetAdmins(ctx context.Context) ([]*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	GetStats(ctx context.Context) (int, int, error) // всего, админов
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	log := logger.New()

	// Автомиграция - создает таблицы если их нет
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.WithError(err).Error("Failed to auto-migrate users table")
		return nil, err
	}

	log.Info("User repository initialized")

	return &GormUserRepository{db: db, logger: log}, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	existing, err := r.GetByChatID(ctx, user.ChatID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		r.logger.WithError(err).Error("Failed to create user")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      user.ID,
		"chat_id": user.ChatID,
		"role":    user.Role,
	}).Info("User created")

	return nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by ID")
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by chat ID")
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	existing, err := r.GetByChatID(ctx, user.ChatID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update user")
		return err
	}

	return nil
}

func (r *GormUserRepository) UpdateRole(ctx context.Context, chatID int64, role models.Role) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update("role", role)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update user role")
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"role":    role,
	}).Info("User role updated")

	return nil
}

func (r *GormUserRepository) GetAdmins(ctx context.Context) ([]*models.User, error) {
	var admins []*models.User
	result := r.db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("id").Find(&admins)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get admins")
		return nil, result.Error
	}

	return admins, nil
}

func (r *GormUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	result := r.db.WithContext(ctx).Order("id").Find(&users)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get users")
		return nil, result.Error
	}

	return users, nil
}

func (r *GormUserRepository) GetStats(ctx context.Context) (int, int, error) {
	var total int64
	var admins int64

	// Общее количество пользователей
	result := r.db.WithContext(ctx).Model(&models.User{}).Count(&total)
	if result.Error != nil {
		return 0, 0, result.Error
	}

	// Количество администраторов
	result = r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&admins)
	if result.Error != nil {
		return 0, 0, result.Error
	}

	return int(total), int(admins), nil
}
