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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PendingNotifier сообщает администраторам о новой заявке
type PendingNotifier interface {
	NotifyPending(ctx context.Context, c *models.Correction, submitter *models.User) error
}

// CorrectionService ведет заявки на исправление: проверка, подача, одобрение.
// Ошибки состояния возвращаются как есть (correction.ErrAlreadyPending и т.д.),
// ошибки хранилища оборачиваются в correction.ErrOperationFailed.
type CorrectionService struct {
	users       repository.UserRepository
	attendances repository.AttendanceRepository
	corrections repository.CorrectionRepository

	builder   *correction.Builder
	validator *correction.Validator
	notifier  PendingNotifier
	now       Clock
	logger    *logrus.Logger
}

type CorrectionOption func(*CorrectionService)

// WithNotifier уведомления админам о новых заявках
func WithNotifier(n PendingNotifier) CorrectionOption {
	return func(s *CorrectionService) {
		s.notifier = n
	}
}

// WithClock подменяет источник времени
func WithClock(now Clock) CorrectionOption {
	return func(s *CorrectionService) {
		s.now = now
	}
}

func NewCorrectionService(
	users repository.UserRepository,
	attendances repository.AttendanceRepository,
	corrections repository.CorrectionRepository,
	builder *correction.Builder,
	validator *correction.Validator,
	opts ...CorrectionOption,
) *CorrectionService {
	s := &CorrectionService{
		users:       users,
		attendances: attendances,
		corrections: corrections,
		builder:     builder,
		validator:   validator,
		logger:      logger.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Validate проверка кандидата без побочных эффектов
func (s *CorrectionService) Validate(c correction.Candidate) correction.IssueList {
	return s.validator.Validate(c)
}

// Check собирает кандидата из буфера и проверяет его вместе с ошибками формата
func (s *CorrectionService) Check(buf correction.EditBuffer) correction.IssueList {
	c, formatIssues := s.builder.ToSubmission(buf)
	return s.check(c, formatIssues)
}

func (s *CorrectionService) check(c correction.Candidate, formatIssues correction.IssueList) correction.IssueList {
	issues := append(correction.IssueList{}, formatIssues...)
	issues = append(issues, s.validator.Collect(c)...)
	return s.validator.Surface(issues)
}

// EditBuffer буфер редактирования записи. Смотреть может владелец или админ.
func (s *CorrectionService) EditBuffer(ctx context.Context, actorID, attendanceID uint) (correction.EditBuffer, error) {
	att, pending, err := s.loadForView(ctx, actorID, attendanceID)
	if err != nil {
		return correction.EditBuffer{}, err
	}
	return s.builder.ToEditBuffer(att, pending), nil
}

// OpenSession сессия редактирования записи для пользователя actorID
func (s *CorrectionService) OpenSession(ctx context.Context, actorID, attendanceID uint) (*correction.Session, error) {
	att, pending, err := s.loadForView(ctx, actorID, attendanceID)
	if err != nil {
		return nil, err
	}
	return s.builder.NewSession(att, pending), nil
}

// Sync перечитывает запись сессии. true значит, что запись изменилась и правки сброшены.
func (s *CorrectionService) Sync(ctx context.Context, session *correction.Session) (bool, error) {
	att, err := s.attendance(ctx, session.AttendanceID)
	if err != nil {
		return false, err
	}
	pending, err := s.corrections.GetPendingByAttendanceID(ctx, att.ID)
	if err != nil {
		return false, correction.Failed("get pending correction", err)
	}
	return session.Sync(att, pending), nil
}

// IsEditable можно ли сейчас исправлять запись
func (s *CorrectionService) IsEditable(att *models.Attendance) bool {
	return att.IsEditable(s.now().In(s.builder.Location()))
}

// Submit подает заявку по записи attendanceID от пользователя actorID.
// Порядок проверок: владелец, нет заявки на рассмотрении, запись закрыта, данные корректны.
func (s *CorrectionService) Submit(ctx context.Context, actorID, attendanceID uint, c correction.Candidate) (*models.Correction, error) {
	return s.submit(ctx, actorID, attendanceID, c, nil)
}

// SubmitBuffer как Submit, кандидат собирается из буфера
func (s *CorrectionService) SubmitBuffer(ctx context.Context, actorID, attendanceID uint, buf correction.EditBuffer) (*models.Correction, error) {
	c, formatIssues := s.builder.ToSubmission(buf)
	return s.submit(ctx, actorID, attendanceID, c, formatIssues)
}

func (s *CorrectionService) submit(ctx context.Context, actorID, attendanceID uint, c correction.Candidate, formatIssues correction.IssueList) (*models.Correction, error) {
	log := s.logger.WithFields(logrus.Fields{
		"submission_id": uuid.NewString(),
		"attendance_id": attendanceID,
		"user_id":       actorID,
	})

	att, err := s.attendance(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if att.UserID != actorID {
		log.Warn("Correction submitted for someone else's attendance")
		return nil, ErrForbidden
	}

	pending, err := s.corrections.GetPendingByAttendanceID(ctx, attendanceID)
	if err != nil {
		return nil, correction.Failed("get pending correction", err)
	}
	current := correction.StatusNone
	if pending != nil {
		current = correction.StatusPending
	}
	if err := correction.CanSubmit(s.IsEditable(att), current); err != nil {
		log.WithError(err).Warn("Correction rejected by state")
		return nil, err
	}

	// перерывы должны принадлежать этой записи
	ownership := s.validator.CheckRests(c.Breaks, att)
	if issues := s.check(c, append(formatIssues, ownership...)); !issues.Empty() {
		log.WithField("issues", len(issues)).Debug("Correction failed validation")
		return nil, &correction.ValidationError{Issues: issues}
	}

	req := c.Request(att.ID, actorID)
	if err := s.corrections.CreatePending(ctx, req); err != nil {
		if errors.Is(err, repository.ErrPendingExists) {
			log.Warn("Lost race for pending correction")
			return nil, correction.ErrAlreadyPending
		}
		log.WithError(err).Error("Failed to store correction")
		return nil, correction.Failed("create correction", err)
	}

	log.WithField("correction_id", req.ID).Info("Correction submitted")

	s.notify(ctx, req, log)

	return req, nil
}

func (s *CorrectionService) notify(ctx context.Context, req *models.Correction, log *logrus.Entry) {
	if s.notifier == nil {
		return
	}
	submitter, err := s.users.GetByID(ctx, req.UserID)
	if err != nil || submitter == nil {
		log.WithError(err).Warn("Failed to load submitter for notification")
		return
	}
	if err := s.notifier.NotifyPending(ctx, req, submitter); err != nil {
		log.WithError(err).Warn("Failed to notify admins")
	}
}

// Approve одобряет заявку и переносит ее время в запись. Только для админов.
func (s *CorrectionService) Approve(ctx context.Context, reviewerID, correctionID uint) (*models.Correction, error) {
	log := s.logger.WithFields(logrus.Fields{
		"correction_id": correctionID,
		"reviewer_id":   reviewerID,
	})

	if _, err := s.admin(ctx, reviewerID); err != nil {
		return nil, err
	}

	now := s.now()
	approved, err := s.corrections.Approve(ctx, correctionID, func(c *models.Correction) error {
		return correction.Approve(c, reviewerID, now, s.builder.Location())
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrCorrectionNotFound
	case errors.Is(err, repository.ErrNotPending):
		log.Warn("Correction is no longer pending")
		return nil, correction.ErrNotApprovable
	case errors.Is(err, correction.ErrNotApprovable):
		log.Warn("Correction is not approvable")
		return nil, err
	case errors.Is(err, correction.ErrUnknownRest):
		log.WithError(err).Warn("Correction references a missing rest")
		return nil, fmt.Errorf("%w: %w", correction.ErrNotApprovable, err)
	default:
		log.WithError(err).Error("Failed to approve correction")
		return nil, correction.Failed("approve correction", err)
	}

	log.WithField("attendance_id", approved.AttendanceID).Info("Correction approved")

	return approved, nil
}

// Get заявка по ID. Видна владельцу и админам.
func (s *CorrectionService) Get(ctx context.Context, actorID, correctionID uint) (*models.Correction, error) {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return nil, err
	}

	c, err := s.corrections.GetByID(ctx, correctionID)
	if err != nil {
		return nil, correction.Failed("get correction", err)
	}
	if c == nil {
		return nil, ErrCorrectionNotFound
	}
	if c.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return c, nil
}

// ListPending заявки на рассмотрении, старые первыми. Только для админов.
func (s *CorrectionService) ListPending(ctx context.Context, actorID uint, limit int) ([]*models.Correction, error) {
	if _, err := s.admin(ctx, actorID); err != nil {
		return nil, err
	}
	list, err := s.corrections.ListByStatus(ctx, models.CorrectionStatusPending, limit)
	if err != nil {
		return nil, correction.Failed("list pending corrections", err)
	}
	return list, nil
}

// ListByUser заявки пользователя; пустой status значит все
func (s *CorrectionService) ListByUser(ctx context.Context, userID uint, status string) ([]*models.Correction, error) {
	list, err := s.corrections.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, correction.Failed("list user corrections", err)
	}
	return list, nil
}

// History одобренные заявки по записи
func (s *CorrectionService) History(ctx context.Context, actorID, attendanceID uint) ([]*models.Correction, error) {
	if _, _, err := s.loadForView(ctx, actorID, attendanceID); err != nil {
		return nil, err
	}
	list, err := s.corrections.ListByAttendance(ctx, attendanceID, models.CorrectionStatusApproved)
	if err != nil {
		return nil, correction.Failed("list correction history", err)
	}
	return list, nil
}

func (s *CorrectionService) loadForView(ctx context.Context, actorID, attendanceID uint) (*models.Attendance, *models.Correction, error) {
	actor, err := s.user(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	att, err := s.attendance(ctx, attendanceID)
	if err != nil {
		return nil, nil, err
	}
	if att.UserID != actor.ID && !actor.IsAdmin() {
		return nil, nil, ErrForbidden
	}
	pending, err := s.corrections.GetPendingByAttendanceID(ctx, attendanceID)
	if err != nil {
		return nil, nil, correction.Failed("get pending correction", err)
	}
	return att, pending, nil
}

func (s *CorrectionService) attendance(ctx context.Context, id uint) (*models.Attendance, error) {
	att, err := s.attendances.GetByID(ctx, id)
	if err != nil {
		return nil, correction.Failed("get attendance", err)
	}
	if att == nil {
		return nil, ErrAttendanceNotFound
	}
	return att, nil
}

func (s *CorrectionService) user(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, correction.Failed("get user", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *CorrectionService) admin(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return u, nil
}

// FormatCorrection заявка для отображения
func (s *CorrectionService) FormatCorrection(c *models.Correction) string {
	var b strings.Builder

	statusEmoji := "⏳"
	if !c.IsPending() {
		statusEmoji = "✅"
	}
	fmt.Fprintf(&b, "%s Заявка №%d по записи №%d", statusEmoji, c.ID, c.AttendanceID)
	if !c.Attendance.Date.IsZero() {
		fmt.Fprintf(&b, " (%s)", c.Attendance.Date.Format("02.01.2006"))
	}
	fmt.Fprintf(&b, "\n⏰ %s - %s\n", c.RequestedStart, c.RequestedEnd)

	for _, r := range c.Rests {
		b.WriteString(r.String() + "\n")
	}

	fmt.Fprintf(&b, "📝 Причина: %s", c.Reason)
	if c.ReviewedAt != nil {
		fmt.Fprintf(&b, "\n🕒 Одобрена: %s", c.ReviewedAt.In(s.builder.Location()).Format("02.01.2006 15:04"))
	}

	return b.String()
}

// FormatIssues ошибки проверки списком; склеенные сообщения поля пишутся в одну строку
func FormatIssues(issues correction.IssueList) string {
	var lines []string
	lines = append(lines, "❌ Исправьте ошибки:")
	for _, issue := range issues {
		lines = append(lines, fmt.Sprintf("• %s: %s", issue.Path, strings.ReplaceAll(issue.Message, "\n", "; ")))
	}
	return strings.Join(lines, "\n")
}
