package correction

import (
	"errors"
	"fmt"
	"time"

	"attendance-bot/internal/models"
)

// ErrUnknownRest заявка ссылается на перерыв, которого нет в записи
var ErrUnknownRest = errors.New("перерыв не найден в записи")

// Approve проверяет переход и переносит время заявки на c.Attendance.
// Меняет только переданные структуры; сохраняет их вызывающий в одной транзакции.
func Approve(c *models.Correction, reviewerID uint, now time.Time, loc *time.Location) error {
	if err := CanApprove(Status(c.Status), c.Attendance.IsEditable(now.In(loc))); err != nil {
		return err
	}
	if err := apply(c, loc); err != nil {
		return err
	}

	reviewedAt := now
	c.Status = models.CorrectionStatusApproved
	c.ReviewerID = &reviewerID
	c.ReviewedAt = &reviewedAt
	return nil
}

// apply копирует приход, уход и перерывы заявки в запись
func apply(c *models.Correction, loc *time.Location) error {
	att := &c.Attendance

	clockIn := att.At(c.RequestedStart, loc)
	clockOut := att.At(c.RequestedEnd, loc)
	att.ClockIn = &clockIn
	att.ClockOut = &clockOut

	index := make(map[uint]int, len(att.Rests))
	for i, rest := range att.Rests {
		index[rest.ID] = i
	}

	for _, r := range c.Rests {
		start := att.At(r.StartTime, loc)
		end := att.At(r.EndTime, loc)

		if r.RestID == nil {
			att.Rests = append(att.Rests, models.Rest{
				AttendanceID: att.ID,
				StartAt:      start,
				EndAt:        &end,
			})
			continue
		}

		i, ok := index[*r.RestID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownRest, *r.RestID)
		}
		att.Rests[i].StartAt = start
		att.Rests[i].EndAt = &end
	}

	return nil
}
