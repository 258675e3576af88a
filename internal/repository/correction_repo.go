package repository

import (
	"context"
	"errors"

	"attendance-bot/internal/models"
	"attendance-bot/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pendingIndexSQL не больше одной заявки pending на запись. Работает в SQLite и PostgreSQL.
const pendingIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_corrections_pending
ON attendance_corrections (attendance_id) WHERE status = 'pending'`

type CorrectionRepository interface {
	CreatePending(ctx context.Context, correction *models.Correction) error
	GetByID(ctx context.Context, id uint) (*models.Correction, error)
	GetPendingByAttendanceID(ctx context.Context, attendanceID uint) (*models.Correction, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*models.Correction, error)
	ListByUser(ctx context.Context, userID uint, status string) ([]*models.Correction, error)
	ListByAttendance(ctx context.Context, attendanceID uint, status string) ([]*models.Correction, error)
	Approve(ctx context.Context, id uint, mutate func(*models.Correction) error) (*models.Correction, error)
}

type GormCorrectionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormCorrectionRepository(db *gorm.DB) (*GormCorrectionRepository, error) {
	log := logger.New()

	if err := db.AutoMigrate(&models.Correction{}, &models.CorrectionRest{}); err != nil {
		log.WithError(err).Error("Failed to auto-migrate corrections tables")
		return nil, err
	}

	if err := db.Exec(pendingIndexSQL).Error; err != nil {
		log.WithError(err).Error("Failed to create pending correction index")
		return nil, err
	}

	log.Info("Correction repository initialized")

	return &GormCorrectionRepository{
		db:     db,
		logger: log,
	}, nil
}

// withCorrectionRests перерывы заявки в порядке id
func withCorrectionRests(db *gorm.DB) *gorm.DB {
	return db.Preload("Rests", func(db *gorm.DB) *gorm.DB {
		return db.Order("attendance_correction_rests.id")
	})
}

// CreatePending сохраняет заявку со статусом pending, если по записи еще нет другой такой.
// Проверка и вставка идут в одной транзакции, гонку между процессами закрывает уникальный индекс.
func (r *GormCorrectionRepository) CreatePending(ctx context.Context, correction *models.Correction) error {
	fields := logrus.Fields{
		"attendance_id": correction.AttendanceID,
		"user_id":       correction.UserID,
	}
	r.logger.WithFields(fields).Info("Creating pending correction")

	correction.Status = models.CorrectionStatusPending

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Correction{}).
			Where("attendance_id = ? AND status = ?", correction.AttendanceID, models.CorrectionStatusPending).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrPendingExists
		}

		return tx.Omit("Attendance").Create(correction).Error
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrPendingExists), isUniqueViolation(err):
		r.logger.WithFields(fields).Warn("Pending correction already exists")
		return ErrPendingExists
	default:
		r.logger.WithError(err).WithFields(fields).Error("Failed to create correction")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":            correction.ID,
		"attendance_id": correction.AttendanceID,
		"rests":         len(correction.Rests),
	}).Info("Pending correction created")

	return nil
}

func (r *GormCorrectionRepository) GetByID(ctx context.Context, id uint) (*models.Correction, error) {
	var correction models.Correction
	result := withCorrectionRests(r.db.WithContext(ctx)).
		Preload("Attendance").
		Preload("Attendance.Rests", func(db *gorm.DB) *gorm.DB { return db.Order("rests.id") }).
		First(&correction, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Correction not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get correction by ID")
		return nil, result.Error
	}

	return &correction, nil
}

func (r *GormCorrectionRepository) GetPendingByAttendanceID(ctx context.Context, attendanceID uint) (*models.Correction, error) {
	var correction models.Correction
	result := withCorrectionRests(r.db.WithContext(ctx)).
		Where("attendance_id = ? AND status = ?", attendanceID, models.CorrectionStatusPending).
		First(&correction)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get pending correction")
		return nil, result.Error
	}

	return &correction, nil
}

func (r *GormCorrectionRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Correction, error) {
	var corrections []*models.Correction

	query := withCorrectionRests(r.db.WithContext(ctx)).
		Preload("Attendance").
		Where("status = ?", status).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&corrections).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list corrections by status")
		return nil, err
	}

	return corrections, nil
}

func (r *GormCorrectionRepository) ListByUser(ctx context.Context, userID uint, status string) ([]*models.Correction, error) {
	var corrections []*models.Correction

	query := withCorrectionRests(r.db.WithContext(ctx)).
		Preload("Attendance").
		Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("id DESC").Find(&corrections).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list corrections by user")
		return nil, err
	}

	return corrections, nil
}

func (r *GormCorrectionRepository) ListByAttendance(ctx context.Context, attendanceID uint, status string) ([]*models.Correction, error) {
	var corrections []*models.Correction

	query := withCorrectionRests(r.db.WithContext(ctx)).Where("attendance_id = ?", attendanceID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("id ASC").Find(&corrections).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list corrections by attendance")
		return nil, err
	}

	return corrections, nil
}

// Approve загружает заявку с записью и перерывами, вызывает mutate и сохраняет
// результат в одной транзакции. Любая ошибка откатывает все изменения.
// Статус меняется условно (status = pending), так что из двух одновременных
// одобрений проходит одно, второе получает ErrNotPending.
func (r *GormCorrectionRepository) Approve(ctx context.Context, id uint, mutate func(*models.Correction) error) (*models.Correction, error) {
	var correction models.Correction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := withCorrectionRests(tx).
			Preload("Attendance").
			Preload("Attendance.Rests", func(db *gorm.DB) *gorm.DB { return db.Order("rests.id") }).
			First(&correction, id)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if result.Error != nil {
			return result.Error
		}

		if err := mutate(&correction); err != nil {
			return err
		}

		update := tx.Model(&models.Correction{}).
			Where("id = ? AND status = ?", correction.ID, models.CorrectionStatusPending).
			Updates(map[string]any{
				"status":      correction.Status,
				"reviewer_id": correction.ReviewerID,
				"reviewed_at": correction.ReviewedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected != 1 {
			return ErrNotPending
		}

		att := &correction.Attendance
		if err := tx.Omit(clause.Associations).Save(att).Error; err != nil {
			return err
		}
		for i := range att.Rests {
			att.Rests[i].AttendanceID = att.ID
			if err := tx.Save(&att.Rests[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotPending) {
			r.logger.WithError(err).WithField("id", id).Warn("Correction approval rolled back")
		}
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"id":            correction.ID,
		"attendance_id": correction.AttendanceID,
		"reviewer_id":   correction.ReviewerID,
	}).Info("Correction approved and applied")

	return &correction, nil
}
