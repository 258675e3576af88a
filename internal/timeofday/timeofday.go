// Package timeofday описывает время суток без даты (HH:MM) и его сравнение.
package timeofday

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const layout = "15:04"

// Ordering результат сравнения двух значений времени.
type Ordering int

const (
	// Incomparable хотя бы одно из значений пустое
	Incomparable Ordering = iota
	Less
	Equal
	Greater
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "incomparable"
	}
}

// TimeOfDay время суток с точностью до минуты. Нулевое значение означает "не заполнено".
type TimeOfDay struct {
	minutes int
	set     bool
}

// Empty возвращает пустое значение
func Empty() TimeOfDay {
	return TimeOfDay{}
}

// New создает время из часов и минут
func New(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day out of range: %02d:%02d", hour, minute)
	}
	return TimeOfDay{minutes: hour*60 + minute, set: true}, nil
}

// MustParse как Parse, но паникует на ошибке. Для констант и тестов.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse разбирает "HH:MM" (допускается "H:MM"). Пустая строка дает пустое значение без ошибки.
func Parse(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, nil
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}

	return TimeOfDay{minutes: t.Hour()*60 + t.Minute(), set: true}, nil
}

// FromTime берет часы и минуты из t
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{minutes: t.Hour()*60 + t.Minute(), set: true}
}

func (t TimeOfDay) IsEmpty() bool {
	return !t.set
}

func (t TimeOfDay) Hour() int {
	return t.minutes / 60
}

func (t TimeOfDay) Minute() int {
	return t.minutes % 60
}

// Minutes количество минут от полуночи
func (t TimeOfDay) Minutes() int {
	return t.minutes
}

// String возвращает "HH:MM" или пустую строку
func (t TimeOfDay) String() string {
	if !t.set {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On переносит время на дату day в ее часовом поясе
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location())
}

// Compare сравнивает t с other. Пустое значение с любой стороны дает Incomparable.
func (t TimeOfDay) Compare(other TimeOfDay) Ordering {
	if !t.set || !other.set {
		return Incomparable
	}
	switch {
	case t.minutes < other.minutes:
		return Less
	case t.minutes > other.minutes:
		return Greater
	default:
		return Equal
	}
}

// IsAfter true, если a строго позже b. На пустых значениях false.
func IsAfter(a, b TimeOfDay) bool {
	return a.Compare(b) == Greater
}

// IsBeforeOrEqual true, если a <= b. На пустых значениях false.
func IsBeforeOrEqual(a, b TimeOfDay) bool {
	o := a.Compare(b)
	return o == Less || o == Equal
}

// Value сохраняет время в БД строкой "HH:MM", пустое как NULL
func (t TimeOfDay) Value() (driver.Value, error) {
	if !t.set {
		return nil, nil
	}
	return t.String(), nil
}

// Scan читает значение из БД
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TimeOfDay{}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		*t = FromTime(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// GormDataType тип колонки для AutoMigrate
func (TimeOfDay) GormDataType() string {
	return "varchar(5)"
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
