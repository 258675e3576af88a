package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"attendance-bot/internal/correction"
	"attendance-bot/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) set(hhmm string) {
	t, _ := time.Parse("15:04", hhmm)
	c.now = time.Date(c.now.Year(), c.now.Month(), c.now.Day(), t.Hour(), t.Minute(), 0, 0, c.now.Location())
}

func newAttendanceFixture() (*AttendanceService, *mockAttendanceRepo, *fakeClock) {
	repo := newMockAttendanceRepo()
	clock := &fakeClock{now: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)}
	svc := NewAttendanceService(repo, time.UTC, clock.Now)
	svc.logger.SetOutput(io.Discard)
	return svc, repo, clock
}

func TestAttendance_DayFlow(t *testing.T) {
	svc, _, clock := newAttendanceFixture()
	ctx := context.Background()

	att, err := svc.ClockIn(ctx, 1)
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if !att.Date.Equal(models.DateOf(clock.now)) {
		t.Errorf("expected date %v, got %v", models.DateOf(clock.now), att.Date)
	}
	if _, err := svc.ClockIn(ctx, 1); !errors.Is(err, ErrAlreadyWorking) {
		t.Errorf("expected ErrAlreadyWorking, got %v", err)
	}
	if svc.IsEditable(att) {
		t.Error("open record of today must not be editable")
	}

	if _, err := svc.EndBreak(ctx, 1); !errors.Is(err, ErrNoOpenRest) {
		t.Errorf("expected ErrNoOpenRest, got %v", err)
	}

	clock.set("12:00")
	if _, err := svc.StartBreak(ctx, 1); err != nil {
		t.Fatalf("StartBreak: %v", err)
	}
	if _, err := svc.StartBreak(ctx, 1); !errors.Is(err, ErrRestInProgress) {
		t.Errorf("expected ErrRestInProgress, got %v", err)
	}
	if _, err := svc.ClockOut(ctx, 1); !errors.Is(err, ErrRestInProgress) {
		t.Errorf("clock out during break: expected ErrRestInProgress, got %v", err)
	}

	clock.set("12:45")
	if _, err := svc.EndBreak(ctx, 1); err != nil {
		t.Fatalf("EndBreak: %v", err)
	}

	clock.set("18:00")
	att, err = svc.ClockOut(ctx, 1)
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if att.RestMinutes() != 45 || att.WorkedMinutes() != 9*60-45 {
		t.Errorf("unexpected totals: rest %d, worked %d", att.RestMinutes(), att.WorkedMinutes())
	}
	if !svc.IsEditable(att) {
		t.Error("closed record must be editable")
	}

	if _, err := svc.ClockOut(ctx, 1); !errors.Is(err, ErrNotWorking) {
		t.Errorf("expected ErrNotWorking, got %v", err)
	}
	if _, err := svc.ClockIn(ctx, 1); !errors.Is(err, ErrAlreadyClockedToday) {
		t.Errorf("expected ErrAlreadyClockedToday, got %v", err)
	}

	text := svc.FormatAttendance(att)
	if !strings.Contains(text, "8ч 15м") || !strings.Contains(text, "45м") {
		t.Errorf("unexpected format:\n%s", text)
	}

	month, err := svc.Month(ctx, 1, 2024, 3)
	if err != nil || len(month) != 1 {
		t.Fatalf("Month: %v, %v", month, err)
	}
	if summary := svc.FormatMonth(month, 2024, 3); !strings.Contains(summary, "Завершенных дней: 1") {
		t.Errorf("unexpected month summary:\n%s", summary)
	}
}

func TestAttendance_StorageFailure(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	repo.err = errStorage

	_, err := svc.ClockIn(context.Background(), 1)
	if !errors.Is(err, correction.ErrOperationFailed) || !errors.Is(err, errStorage) {
		t.Errorf("expected wrapped storage error, got %v", err)
	}
}

func TestAttendance_Today(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	ctx := context.Background()

	none, err := svc.Today(ctx, 1)
	if err != nil || none != nil {
		t.Errorf("expected no record, got %v, %v", none, err)
	}

	if _, err := svc.ClockIn(ctx, 1); err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	today, err := svc.Today(ctx, 1)
	if err != nil || today == nil {
		t.Errorf("expected today's record, got %v, %v", today, err)
	}
}

func TestUserService(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)
	svc.logger.SetOutput(io.Discard)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, 10, "ivan", "", ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	user, err := svc.CreateUser(ctx, 10, "ivan", "Иван", "")
	if err != nil || user.Role != models.RoleClient {
		t.Fatalf("CreateUser: %+v, %v", user, err)
	}

	if err := svc.InitializeAdmin(ctx, 20); err != nil {
		t.Fatalf("InitializeAdmin: %v", err)
	}
	if ok, _ := svc.IsAdmin(ctx, 20); !ok {
		t.Error("expected configured admin")
	}

	if err := svc.UpdateRole(ctx, 10, 20, models.RoleClient); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := svc.UpdateRole(ctx, 20, 10, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if ok, _ := svc.IsAdmin(ctx, 10); !ok {
		t.Error("expected promoted admin")
	}

	if _, err := svc.GetUser(ctx, 404); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
