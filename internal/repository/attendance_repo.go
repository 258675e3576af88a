package repository

import (
	"context"
	"errors"
	"time"

	"attendance-bot/internal/models"
	"attendance-bot/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AttendanceRepository interface {
	Create(ctx context.Context, attendance *models.Attendance) error
	GetByID(ctx context.Context, id uint) (*models.Attendance, error)
	GetByUserAndDate(ctx context.Context, userID uint, date time.Time) (*models.Attendance, error)
	GetOpenByUserID(ctx context.Context, userID uint) (*models.Attendance, error)
	GetByUserID(ctx context.Context, userID uint, limit int) ([]*models.Attendance, error)
	GetByUserIDAndMonth(ctx context.Context, userID uint, year, month int) ([]*models.Attendance, error)
	SetClockOut(ctx context.Context, id uint, at time.Time) error
	StartRest(ctx context.Context, rest *models.Rest) error
	EndRest(ctx context.Context, restID uint, at time.Time) error
}

type GormAttendanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceRepository(db *gorm.DB) (*GormAttendanceRepository, error) {
	log := logger.New()

	// Автомиграция
	if err := db.AutoMigrate(&models.Attendance{}, &models.Rest{}); err != nil {
		log.WithError(err).Error("Failed to auto-migrate attendances tables")
		return nil, err
	}

	log.Info("Attendance repository initialized")

	return &GormAttendanceRepository{
		db:     db,
		logger: log,
	}, nil
}

// withRests перерывы в порядке id
func withRests(db *gorm.DB) *gorm.DB {
	return db.Preload("Rests", func(db *gorm.DB) *gorm.DB {
		return db.Order("rests.id")
	})
}

func (r *GormAttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	attendance.Date = models.DateOf(attendance.Date)

	fields := logrus.Fields{
		"user_id": attendance.UserID,
		"date":    attendance.Date.Format("2006-01-02"),
	}
	r.logger.WithFields(fields).Info("Creating attendance")

	// Проверяем, есть ли уже запись на эту дату
	existing, err := r.GetByUserAndDate(ctx, attendance.UserID, attendance.Date)
	if err != nil {
		return err
	}
	if existing != nil {
		r.logger.WithFields(fields).Warn("Attendance already exists for this date")
		return ErrAttendanceExists
	}

	if err := r.db.WithContext(ctx).Create(attendance).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAttendanceExists
		}
		r.logger.WithError(err).Error("Failed to create attendance")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      attendance.ID,
		"user_id": attendance.UserID,
	}).Info("Attendance created successfully")

	return nil
}

func (r *GormAttendanceRepository) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	var attendance models.Attendance
	result := withRests(r.db.WithContext(ctx)).First(&attendance, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Attendance not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance by ID")
		return nil, result.Error
	}

	return &attendance, nil
}

func (r *GormAttendanceRepository) GetByUserAndDate(ctx context.Context, userID uint, date time.Time) (*models.Attendance, error) {
	var attendance models.Attendance
	day := models.DateOf(date)
	result := withRests(r.db.WithContext(ctx)).
		Where("user_id = ? AND date = ?", userID, day).
		First(&attendance)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"date":    day.Format("2006-01-02"),
		}).Debug("Attendance not found for user/date")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance by user and date")
		return nil, result.Error
	}

	return &attendance, nil
}

func (r *GormAttendanceRepository) GetOpenByUserID(ctx context.Context, userID uint) (*models.Attendance, error) {
	var attendance models.Attendance
	result := withRests(r.db.WithContext(ctx)).
		Where("user_id = ? AND clock_out IS NULL", userID).
		Order("date DESC").
		First(&attendance)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("user_id", userID).Debug("No open attendance found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get open attendance")
		return nil, result.Error
	}

	return &attendance, nil
}

func (r *GormAttendanceRepository) GetByUserID(ctx context.Context, userID uint, limit int) ([]*models.Attendance, error) {
	var attendances []*models.Attendance

	query := withRests(r.db.WithContext(ctx)).Where("user_id = ?", userID).Order("date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&attendances).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get attendances by user ID")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(attendances),
		"limit":   limit,
	}).Debug("Retrieved attendances by user ID")

	return attendances, nil
}

func (r *GormAttendanceRepository) GetByUserIDAndMonth(ctx context.Context, userID uint, year, month int) ([]*models.Attendance, error) {
	var attendances []*models.Attendance

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	result := withRests(r.db.WithContext(ctx)).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, startDate, endDate).
		Order("date ASC").
		Find(&attendances)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendances by user and month")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"year":    year,
		"month":   month,
		"count":   len(attendances),
	}).Debug("Retrieved attendances by user and month")

	return attendances, nil
}

func (r *GormAttendanceRepository) SetClockOut(ctx context.Context, id uint, at time.Time) error {
	r.logger.WithFields(logrus.Fields{
		"id":        id,
		"clock_out": at.Format("15:04"),
	}).Info("Clocking out")

	result := r.db.WithContext(ctx).Model(&models.Attendance{ID: id}).
		Where("clock_out IS NULL").
		Update("clock_out", at)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to set clock out")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("No open attendance to clock out")
		return ErrNotFound
	}

	return nil
}

func (r *GormAttendanceRepository) StartRest(ctx context.Context, rest *models.Rest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rest).Error; err != nil {
			r.logger.WithError(err).Error("Failed to start rest")
			return err
		}
		if err := touch(tx, rest.AttendanceID); err != nil {
			return err
		}

		r.logger.WithFields(logrus.Fields{
			"rest_id":       rest.ID,
			"attendance_id": rest.AttendanceID,
		}).Info("Rest started")
		return nil
	})
}

func (r *GormAttendanceRepository) EndRest(ctx context.Context, restID uint, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rest models.Rest
		if err := tx.First(&rest, restID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		result := tx.Model(&rest).Where("end_at IS NULL").Update("end_at", at)
		if result.Error != nil {
			r.logger.WithError(result.Error).Error("Failed to end rest")
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := touch(tx, rest.AttendanceID); err != nil {
			return err
		}

		r.logger.WithFields(logrus.Fields{
			"rest_id":       rest.ID,
			"attendance_id": rest.AttendanceID,
		}).Info("Rest ended")
		return nil
	})
}

// touch обновляет updated_at записи: изменение перерывов тоже меняет версию записи
func touch(tx *gorm.DB, attendanceID uint) error {
	return tx.Model(&models.Attendance{ID: attendanceID}).Update("updated_at", time.Now()).Error
}
