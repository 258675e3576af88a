// Package correction проверяет исправления времени посещаемости и ведет заявку
// на исправление от подачи до одобрения.
package correction

import (
	"strconv"

	"attendance-bot/internal/models"
	"attendance-bot/internal/timeofday"
)

// MaxReasonLength максимальная длина причины в символах
const MaxReasonLength = 400

// WorkInterval приход и уход
type WorkInterval struct {
	Start timeofday.TimeOfDay `json:"start"`
	End   timeofday.TimeOfDay `json:"end"`
}

// BreakInterval начало и конец перерыва
type BreakInterval struct {
	Start timeofday.TimeOfDay `json:"start"`
	End   timeofday.TimeOfDay `json:"end"`
}

// Complete заполнены оба конца
func (b BreakInterval) Complete() bool {
	return !b.Start.IsEmpty() && !b.End.IsEmpty()
}

// Blank не заполнен ни один конец
func (b BreakInterval) Blank() bool {
	return b.Start.IsEmpty() && b.End.IsEmpty()
}

// overlaps строгое пересечение [s1,e1) и [s2,e2); касание концами не считается
func (b BreakInterval) overlaps(other BreakInterval) bool {
	return b.Start.Compare(other.End) == timeofday.Less &&
		other.Start.Compare(b.End) == timeofday.Less
}

// BreakSlot перерыв в кандидате: либо существующий (ExistingBreak), либо новый (DraftBreak)
type BreakSlot interface {
	// Key ключ в путях ошибок: id перерыва или "new"
	Key() string
	Interval() BreakInterval
	isBreakSlot()
}

// ExistingBreak исправление уже сохраненного перерыва
type ExistingBreak struct {
	RestID uint
	BreakInterval
}

func (b ExistingBreak) Key() string             { return strconv.FormatUint(uint64(b.RestID), 10) }
func (b ExistingBreak) Interval() BreakInterval { return b.BreakInterval }
func (ExistingBreak) isBreakSlot()              {}

// DraftBreak новый перерыв, которого еще нет в записи
type DraftBreak struct {
	BreakInterval
}

func (DraftBreak) Key() string                { return draftKey }
func (b DraftBreak) Interval() BreakInterval { return b.BreakInterval }
func (DraftBreak) isBreakSlot()               {}

// Candidate предлагаемая замена времени записи
type Candidate struct {
	Work   WorkInterval
	Breaks []BreakSlot
	Reason string
}

// Request собирает модель заявки из кандидата. Кандидат должен быть уже проверен.
func (c Candidate) Request(attendanceID, userID uint) *models.Correction {
	req := &models.Correction{
		AttendanceID:   attendanceID,
		UserID:         userID,
		RequestedStart: c.Work.Start,
		RequestedEnd:   c.Work.End,
		Reason:         c.Reason,
		Status:         models.CorrectionStatusPending,
	}

	for _, slot := range c.Breaks {
		interval := slot.Interval()
		rest := models.CorrectionRest{
			StartTime: interval.Start,
			EndTime:   interval.End,
		}
		if existing, ok := slot.(ExistingBreak); ok {
			id := existing.RestID
			rest.RestID = &id
		}
		req.Rests = append(req.Rests, rest)
	}

	return req
}
