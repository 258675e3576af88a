package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/correction"
	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
	"attendance-bot/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Clock источник текущего времени
type Clock func() time.Time

type AttendanceService struct {
	repo   repository.AttendanceRepository
	loc    *time.Location
	now    Clock
	logger *logrus.Logger
}

func NewAttendanceService(repo repository.AttendanceRepository, loc *time.Location, now Clock) *AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}

	return &AttendanceService{
		repo:   repo,
		loc:    loc,
		now:    now,
		logger: logger.New(),
	}
}

// Location рабочий часовой пояс
func (s *AttendanceService) Location() *time.Location {
	return s.loc
}

// Now текущее время в рабочем часовом поясе
func (s *AttendanceService) Now() time.Time {
	return s.now().In(s.loc)
}

// IsEditable можно ли сейчас исправлять запись
func (s *AttendanceService) IsEditable(attendance *models.Attendance) bool {
	return attendance.IsEditable(s.Now())
}

// ClockIn отмечает начало рабочего дня
func (s *AttendanceService) ClockIn(ctx context.Context, userID uint) (*models.Attendance, error) {
	now := s.Now()
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"clock_in": now.Format("15:04"),
	}).Info("User clocking in")

	open, err := s.repo.GetOpenByUserID(ctx, userID)
	if err != nil {
		return nil, correction.Failed("get open attendance", err)
	}
	if open != nil {
		s.logger.WithField("user_id", userID).Warn("User already has open attendance")
		return nil, ErrAlreadyWorking
	}

	today, err := s.repo.GetByUserAndDate(ctx, userID, now)
	if err != nil {
		return nil, correction.Failed("get today attendance", err)
	}
	if today != nil {
		return nil, ErrAlreadyClockedToday
	}

	attendance := &models.Attendance{
		UserID:  userID,
		Date:    models.DateOf(now),
		ClockIn: &now,
	}
	if err := s.repo.Create(ctx, attendance); err != nil {
		if errors.Is(err, repository.ErrAttendanceExists) {
			return nil, ErrAlreadyClockedToday
		}
		return nil, correction.Failed("create attendance", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":      attendance.ID,
		"user_id": userID,
		"date":    attendance.Date.Format("2006-01-02"),
	}).Info("User clocked in successfully")

	return attendance, nil
}

// ClockOut отмечает конец рабочего дня. Во время перерыва уйти нельзя.
func (s *AttendanceService) ClockOut(ctx context.Context, userID uint) (*models.Attendance, error) {
	open, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open.OpenRest() != nil {
		return nil, ErrRestInProgress
	}

	now := s.Now()
	if err := s.repo.SetClockOut(ctx, open.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotWorking
		}
		return nil, correction.Failed("clock out", err)
	}

	attendance, err := s.Get(ctx, open.ID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":             attendance.ID,
		"user_id":        userID,
		"worked_minutes": attendance.WorkedMinutes(),
	}).Info("User clocked out successfully")

	return attendance, nil
}

// StartBreak начинает перерыв. Одновременно открыт не больше одного.
func (s *AttendanceService) StartBreak(ctx context.Context, userID uint) (*models.Attendance, error) {
	open, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open.OpenRest() != nil {
		return nil, ErrRestInProgress
	}

	rest := &models.Rest{AttendanceID: open.ID, StartAt: s.Now()}
	if err := s.repo.StartRest(ctx, rest); err != nil {
		return nil, correction.Failed("start rest", err)
	}

	return s.Get(ctx, open.ID)
}

// EndBreak завершает открытый перерыв
func (s *AttendanceService) EndBreak(ctx context.Context, userID uint) (*models.Attendance, error) {
	open, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	rest := open.OpenRest()
	if rest == nil {
		return nil, ErrNoOpenRest
	}

	if err := s.repo.EndRest(ctx, rest.ID, s.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoOpenRest
		}
		return nil, correction.Failed("end rest", err)
	}

	return s.Get(ctx, open.ID)
}

func (s *AttendanceService) open(ctx context.Context, userID uint) (*models.Attendance, error) {
	open, err := s.repo.GetOpenByUserID(ctx, userID)
	if err != nil {
		return nil, correction.Failed("get open attendance", err)
	}
	if open == nil {
		return nil, ErrNotWorking
	}
	return open, nil
}

// Get запись по ID
func (s *AttendanceService) Get(ctx context.Context, id uint) (*models.Attendance, error) {
	attendance, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, correction.Failed("get attendance", err)
	}
	if attendance == nil {
		return nil, ErrAttendanceNotFound
	}
	return attendance, nil
}

// Today незакрытый день, если есть, иначе запись за сегодня. nil если записи нет.
func (s *AttendanceService) Today(ctx context.Context, userID uint) (*models.Attendance, error) {
	open, err := s.repo.GetOpenByUserID(ctx, userID)
	if err != nil {
		return nil, correction.Failed("get open attendance", err)
	}
	if open != nil {
		return open, nil
	}

	today, err := s.repo.GetByUserAndDate(ctx, userID, s.Now())
	if err != nil {
		return nil, correction.Failed("get today attendance", err)
	}
	return today, nil
}

// History последние limit записей
func (s *AttendanceService) History(ctx context.Context, userID uint, limit int) ([]*models.Attendance, error) {
	attendances, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, correction.Failed("get attendance history", err)
	}
	return attendances, nil
}

// Month записи за месяц
func (s *AttendanceService) Month(ctx context.Context, userID uint, year, month int) ([]*models.Attendance, error) {
	attendances, err := s.repo.GetByUserIDAndMonth(ctx, userID, year, month)
	if err != nil {
		return nil, correction.Failed("get month attendances", err)
	}
	return attendances, nil
}

// FormatAttendance форматирует запись для отображения
func (s *AttendanceService) FormatAttendance(a *models.Attendance) string {
	if a == nil {
		return "❌ Запись не найдена"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Рабочий день: %s (№%d)\n", a.Date.Format("02.01.2006"), a.ID)

	status := "🟢 На работе"
	switch {
	case a.OpenRest() != nil:
		status = "☕ На перерыве"
	case !a.IsOpen():
		status = "✅ Завершен"
	}
	fmt.Fprintf(&b, "%s\n\n%s\n", status, a.FormatTime(s.loc))

	if len(a.Rests) > 0 {
		b.WriteString("\n☕ Перерывы:\n")
		for _, rest := range a.Rests {
			end := "..."
			if rest.EndAt != nil {
				end = rest.EndAt.In(s.loc).Format("15:04")
			}
			fmt.Fprintf(&b, "   • %s - %s (№%d)\n", rest.StartAt.In(s.loc).Format("15:04"), end, rest.ID)
		}
	}

	if !a.IsOpen() {
		fmt.Fprintf(&b, "\n⏰ Отработано: %s\n", models.FormatMinutes(a.WorkedMinutes()))
		fmt.Fprintf(&b, "☕ Перерывы: %s", models.FormatMinutes(a.RestMinutes()))
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatHistory форматирует список записей
func (s *AttendanceService) FormatHistory(attendances []*models.Attendance) string {
	if len(attendances) == 0 {
		return "📭 Записей пока нет"
	}

	var b strings.Builder
	b.WriteString("📋 История рабочих дней:\n\n")

	for i, a := range attendances {
		statusEmoji := "🟢"
		if !a.IsOpen() {
			statusEmoji = "✅"
		}
		fmt.Fprintf(&b, "%d. %s %s №%d - %s (%s)\n",
			i+1,
			statusEmoji,
			a.Date.Format("02.01"),
			a.ID,
			models.FormatMinutes(a.WorkedMinutes()),
			a.FormatTime(s.loc))
	}

	return b.String()
}

// FormatMonth итоги за месяц
func (s *AttendanceService) FormatMonth(attendances []*models.Attendance, year, month int) string {
	title := fmt.Sprintf("📊 %02d.%d", month, year)
	if len(attendances) == 0 {
		return title + "\n\n📭 Записей за месяц нет"
	}

	days, worked, rested := 0, 0, 0
	for _, a := range attendances {
		if a.IsOpen() {
			continue
		}
		days++
		worked += a.WorkedMinutes()
		rested += a.RestMinutes()
	}

	return fmt.Sprintf("%s\n\n📅 Завершенных дней: %d\n⏰ Отработано: %s\n☕ Перерывы: %s",
		title, days, models.FormatMinutes(worked), models.FormatMinutes(rested))
}
