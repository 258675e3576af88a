package correction

import (
	"time"

	"attendance-bot/internal/models"
)

// Session буфер редактирования одной записи. Правки пользователя живут только
// пока запись не изменилась на сервере: при смене updated_at буфер
// пересобирается из свежей записи, несохраненные правки теряются.
type Session struct {
	AttendanceID uint
	Buffer       EditBuffer

	builder *Builder
	version time.Time
}

// NewSession открывает сессию редактирования записи
func (b *Builder) NewSession(record *models.Attendance, pending *models.Correction) *Session {
	return &Session{
		AttendanceID: record.ID,
		Buffer:       b.ToEditBuffer(record, pending),
		builder:      b,
		version:      record.UpdatedAt,
	}
}

// Version updated_at записи, из которой собран буфер
func (s *Session) Version() time.Time {
	return s.version
}

// Sync сверяет сессию со свежей записью. Возвращает true, если буфер был пересобран.
func (s *Session) Sync(record *models.Attendance, pending *models.Correction) bool {
	if record.UpdatedAt.Equal(s.version) {
		return false
	}
	s.AttendanceID = record.ID
	s.Buffer = s.builder.ToEditBuffer(record, pending)
	s.version = record.UpdatedAt
	return true
}

// Set правка поля буфера по пути
func (s *Session) Set(path, value string) error {
	return s.Buffer.Set(path, value)
}

// Candidate кандидат из текущего буфера
func (s *Session) Candidate() (Candidate, IssueList) {
	return s.builder.ToSubmission(s.Buffer)
}
