package models

import (
	"fmt"
	"time"

	"attendance-bot/internal/timeofday"
)

// Attendance запись посещаемости одного пользователя за один день
type Attendance struct {
	ID     uint      `gorm:"primarykey" json:"id"`
	UserID uint      `gorm:"not null;uniqueIndex:idx_attendances_user_date" json:"user_id"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendances_user_date" json:"date"`

	// Время прихода/ухода
	ClockIn  *time.Time `json:"clock_in"`
	ClockOut *time.Time `json:"clock_out"`

	Rests []Rest `gorm:"foreignKey:AttendanceID" json:"rests"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Attendance) TableName() string {
	return "attendances"
}

// DateOf календарная дата t, приведенная к полуночи UTC. Так даты хранятся в БД.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At момент времени tod в день записи в часовом поясе loc
func (a *Attendance) At(tod timeofday.TimeOfDay, loc *time.Location) time.Time {
	y, m, d := a.Date.Date()
	return tod.On(time.Date(y, m, d, 0, 0, 0, 0, loc))
}

// IsOpen пользователь еще на работе
func (a *Attendance) IsOpen() bool {
	return a.ClockOut == nil
}

// IsEditable запись можно исправлять, если это не сегодняшний незакрытый день.
// now должен быть в рабочем часовом поясе.
func (a *Attendance) IsEditable(now time.Time) bool {
	if a.ClockOut != nil {
		return true
	}
	return a.Date.Before(DateOf(now))
}

// OpenRest незакрытый перерыв, если есть
func (a *Attendance) OpenRest() *Rest {
	for i := range a.Rests {
		if a.Rests[i].EndAt == nil {
			return &a.Rests[i]
		}
	}
	return nil
}

// RestMinutes сумма завершенных перерывов в минутах
func (a *Attendance) RestMinutes() int {
	total := 0
	for _, rest := range a.Rests {
		total += rest.Minutes()
	}
	return total
}

// WorkedMinutes отработанные минуты без перерывов; 0 пока день не закрыт
func (a *Attendance) WorkedMinutes() int {
	if a.ClockIn == nil || a.ClockOut == nil {
		return 0
	}
	minutes := int(a.ClockOut.Sub(*a.ClockIn).Minutes()) - a.RestMinutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}

// FormatTime форматирует время для отображения
func (a *Attendance) FormatTime(loc *time.Location) string {
	in := "--:--"
	if a.ClockIn != nil {
		in = a.ClockIn.In(loc).Format("15:04")
	}
	if a.ClockOut == nil {
		return fmt.Sprintf("⏰ Пришел: %s", in)
	}
	return fmt.Sprintf("⏰ Пришел: %s | Ушел: %s", in, a.ClockOut.In(loc).Format("15:04"))
}

// FormatMinutes "8ч 30м" / "8ч"
func FormatMinutes(minutes int) string {
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dч", hours)
	}
	return fmt.Sprintf("%dч %dм", hours, rest)
}
