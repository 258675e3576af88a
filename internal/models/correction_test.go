package models

import (
	"testing"
	"time"

	"attendance-bot/internal/timeofday"
)

func TestCorrectionRest_String(t *testing.T) {
	restID := uint(3)
	existing := CorrectionRest{RestID: &restID, StartTime: timeofday.MustParse("12:00"), EndTime: timeofday.MustParse("12:30")}
	if got := existing.String(); got != "☕ Перерыв №3: 12:00 - 12:30" {
		t.Errorf("unexpected existing rest line %q", got)
	}

	draft := CorrectionRest{StartTime: timeofday.MustParse("15:00"), EndTime: timeofday.MustParse("15:15")}
	if got := draft.String(); got != "☕ Перерыв новый: 15:00 - 15:15" {
		t.Errorf("unexpected new rest line %q", got)
	}
}

func TestAttendance_At(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	a := &Attendance{Date: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)}

	got := a.At(timeofday.MustParse("09:30"), msk)
	want := time.Date(2024, 3, 14, 9, 30, 0, 0, msk)
	if !got.Equal(want) || got.Location() != msk {
		t.Errorf("expected %v, got %v", want, got)
	}
}
