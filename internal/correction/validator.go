package correction

import (
	"strings"
	"unicode/utf8"

	"attendance-bot/internal/models"
	"attendance-bot/internal/timeofday"
)

// Validator проверяет согласованность времени прихода, ухода и перерывов
type Validator struct {
	messages Messages
	mode     Mode
}

// ValidatorOption настройка валидатора
type ValidatorOption func(*Validator)

// WithMode задает режим показа ошибок (по умолчанию первая ошибка на поле)
func WithMode(mode Mode) ValidatorOption {
	return func(v *Validator) {
		v.mode = mode
	}
}

// NewValidator создает валидатор с каталогом сообщений messages
func NewValidator(messages Messages, opts ...ValidatorOption) *Validator {
	if messages == nil {
		messages = DefaultMessages()
	}
	v := &Validator{messages: messages, mode: ModeFirstPerPath}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Messages каталог, с которым работает валидатор
func (v *Validator) Messages() Messages {
	return v.messages
}

// Validate проверяет кандидата и возвращает ошибки, свернутые по полям.
// Пустой список значит, что кандидат корректен.
func (v *Validator) Validate(c Candidate) IssueList {
	return v.Collect(c).Surface(v.mode)
}

// Surface сворачивает уже собранный список в режиме валидатора
func (v *Validator) Surface(issues IssueList) IssueList {
	return issues.Surface(v.mode)
}

// Collect возвращает все найденные ошибки без свертки
func (v *Validator) Collect(c Candidate) IssueList {
	var issues IssueList
	issues = append(issues, v.CheckTimes(c.Work, c.Breaks)...)
	issues = append(issues, v.CheckReason(c.Reason)...)
	return issues
}

// CheckTimes проверяет время без причины. Ошибки копятся по всем перерывам.
func (v *Validator) CheckTimes(work WorkInterval, breaks []BreakSlot) IssueList {
	var issues IssueList

	if work.Start.IsEmpty() {
		issues = v.add(issues, PathRequestedStart, KindWorkStartRequired)
	}
	if work.End.IsEmpty() {
		issues = v.add(issues, PathRequestedEnd, KindWorkEndRequired)
	}
	if o := work.End.Compare(work.Start); o == timeofday.Less || o == timeofday.Equal {
		issues = v.add(issues, PathRequestedEnd, KindAttendanceTimeInvalid)
	}

	for _, slot := range breaks {
		issues = append(issues, v.checkBreak(work, slot)...)
	}

	issues = append(issues, v.checkOverlaps(breaks)...)

	return issues
}

// checkBreak правила для одного перерыва
func (v *Validator) checkBreak(work WorkInterval, slot BreakSlot) IssueList {
	var issues IssueList
	b := slot.Interval()
	startPath := RestStartPath(slot.Key())
	endPath := RestEndPath(slot.Key())

	switch {
	case b.Blank():
		return nil
	case b.Start.IsEmpty():
		return v.add(issues, startPath, KindBreakStartRequired)
	case b.End.IsEmpty():
		return v.add(issues, endPath, KindBreakEndRequired)
	}

	// Начало перерыва строго внутри (приход, уход). Незаполненный конец рабочего
	// интервала уже отмечен выше, сравнение с ним пропускаем.
	afterStart := b.Start.Compare(work.Start)
	beforeEnd := work.End.Compare(b.Start)
	if (afterStart != timeofday.Incomparable && afterStart != timeofday.Greater) ||
		(beforeEnd != timeofday.Incomparable && beforeEnd != timeofday.Greater) {
		issues = v.add(issues, startPath, KindBreakTimeInvalid)
	}

	if b.End.Compare(b.Start) != timeofday.Greater {
		issues = v.add(issues, endPath, KindBreakEndBeforeStart)
	}

	if b.End.Compare(work.End) == timeofday.Greater {
		issues = v.add(issues, endPath, KindBreakExceedsWorkEnd)
	}

	return issues
}

// checkOverlaps попарное пересечение заполненных перерывов.
// Ошибка вешается на начало более позднего в списке перерыва.
func (v *Validator) checkOverlaps(breaks []BreakSlot) IssueList {
	var issues IssueList

	for j := 1; j < len(breaks); j++ {
		later := breaks[j].Interval()
		if !later.Complete() || later.End.Compare(later.Start) != timeofday.Greater {
			continue
		}
		for i := 0; i < j; i++ {
			earlier := breaks[i].Interval()
			if !earlier.Complete() || earlier.End.Compare(earlier.Start) != timeofday.Greater {
				continue
			}
			if earlier.overlaps(later) {
				issues = v.add(issues, RestStartPath(breaks[j].Key()), KindBreakOverlap)
				break
			}
		}
	}

	return issues
}

// CheckRests каждый существующий перерыв кандидата должен принадлежать записи record.
// Ошибка вешается на начало перерыва.
func (v *Validator) CheckRests(breaks []BreakSlot, record *models.Attendance) IssueList {
	owned := make(map[uint]bool, len(record.Rests))
	for _, rest := range record.Rests {
		owned[rest.ID] = true
	}

	var issues IssueList
	for _, slot := range breaks {
		existing, ok := slot.(ExistingBreak)
		if !ok || owned[existing.RestID] {
			continue
		}
		issues = v.add(issues, RestStartPath(existing.Key()), KindRestUnknown)
	}
	return issues
}

// CheckReason причина обязательна и не длиннее MaxReasonLength символов
func (v *Validator) CheckReason(reason string) IssueList {
	if strings.TrimSpace(reason) == "" {
		return v.add(nil, PathReason, KindReasonRequired)
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return v.add(nil, PathReason, KindReasonTooLong)
	}
	return nil
}

func (v *Validator) add(issues IssueList, path string, kind Kind) IssueList {
	return append(issues, Issue{Path: path, Kind: kind, Message: v.messages.Text(kind)})
}
