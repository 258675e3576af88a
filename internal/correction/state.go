package correction

import (
	"errors"
	"fmt"

	"attendance-bot/internal/models"
)

// Status состояние заявки. StatusNone значит, что заявки нет.
type Status string

const (
	StatusNone     Status = ""
	StatusPending  Status = models.CorrectionStatusPending
	StatusApproved Status = models.CorrectionStatusApproved
)

var (
	// ErrValidationFailed данные заявки не прошли проверку; подробности в *ValidationError
	ErrValidationFailed = errors.New("данные исправления некорректны")
	// ErrAlreadyPending на запись уже есть заявка на рассмотрении
	ErrAlreadyPending = errors.New("по этой записи уже есть заявка на рассмотрении")
	// ErrNotEditable рабочий день еще не закрыт
	ErrNotEditable = errors.New("запись нельзя исправить, пока рабочий день не завершен")
	// ErrNotApprovable заявка не на рассмотрении или запись сейчас нельзя изменять
	ErrNotApprovable = errors.New("заявку нельзя одобрить")
	// ErrInvalidTransition переход между состояниями заявки не разрешен
	ErrInvalidTransition = errors.New("недопустимый переход состояния заявки")
	// ErrOperationFailed хранилище не смогло выполнить операцию
	ErrOperationFailed = errors.New("операция не выполнена")
)

// ValidationError ошибка проверки со списком ошибок по полям
type ValidationError struct {
	Issues IssueList
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ErrValidationFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed.Error(), e.Issues.String())
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Failed оборачивает ошибку хранилища в ErrOperationFailed, сохраняя цепочку
func Failed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}

// CanSubmit можно ли подать новую заявку. current состояние последней заявки по записи.
func CanSubmit(editable bool, current Status) error {
	if current == StatusPending {
		return ErrAlreadyPending
	}
	if !editable {
		return ErrNotEditable
	}
	return Transition(StatusNone, StatusPending)
}

// CanApprove можно ли одобрить заявку в состоянии status по записи с признаком editable
func CanApprove(status Status, editable bool) error {
	if status != StatusPending || !editable {
		return ErrNotApprovable
	}
	return Transition(status, StatusApproved)
}

// Transition проверяет переход. Разрешены только none -> pending и pending -> approved.
func Transition(from, to Status) error {
	switch {
	case from == StatusNone && to == StatusPending:
		return nil
	case from == StatusPending && to == StatusApproved:
		return nil
	default:
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
	}
}
