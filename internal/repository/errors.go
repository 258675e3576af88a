package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("запись не найдена")
	ErrUserExists       = errors.New("пользователь уже существует")
	ErrAttendanceExists = errors.New("запись посещаемости на эту дату уже существует")
	ErrPendingExists    = errors.New("по записи уже есть заявка на рассмотрении")
	ErrNotPending       = errors.New("заявка уже не на рассмотрении")
)

// isUniqueViolation нарушение уникального индекса. TranslateError дает
// gorm.ErrDuplicatedKey, текст проверяем на случай соединения без перевода ошибок.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
