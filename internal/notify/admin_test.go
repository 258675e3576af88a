package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"attendance-bot/internal/models"
	"attendance-bot/internal/timeofday"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
)

type staticAdmins []*models.User

func (a staticAdmins) GetAdmins(context.Context) ([]*models.User, error) {
	return a, nil
}

type recordingSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if s.err != nil {
		return tgbotapi.Message{}, s.err
	}
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func testCorrection() *models.Correction {
	return &models.Correction{
		ID:             7,
		AttendanceID:   3,
		UserID:         1,
		RequestedStart: timeofday.MustParse("09:00"),
		RequestedEnd:   timeofday.MustParse("18:00"),
		Reason:         "забыл отметиться",
		Rests:          []models.CorrectionRest{{StartTime: timeofday.MustParse("12:00"), EndTime: timeofday.MustParse("12:30")}},
		CreatedAt:      time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifyPending(t *testing.T) {
	sender := &recordingSender{}
	admins := staticAdmins{{ID: 2, ChatID: 200}, {ID: 1, ChatID: 100}}
	n := NewAdminNotifier(admins, sender, time.UTC)
	n.logger.SetOutput(io.Discard)

	submitter := &models.User{ID: 1, FirstName: "Ivan"}
	if err := n.NotifyPending(context.Background(), testCorrection(), submitter); err != nil {
		t.Fatalf("NotifyPending: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0].ChatID != 200 {
		t.Fatalf("expected one message to the other admin, got %+v", sender.sent)
	}
	msg := sender.sent[0]
	if !strings.Contains(msg.Text, "№7") || !strings.Contains(msg.Text, "12:00 - 12:30") {
		t.Errorf("unexpected text:\n%s", msg.Text)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || *kb.InlineKeyboard[0][0].CallbackData != "approve_correction_7" {
		t.Errorf("expected approve button, got %+v", msg.ReplyMarkup)
	}
}

func TestNotifyPending_BreakerOpens(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	n := NewAdminNotifier(staticAdmins{{ID: 2, ChatID: 200}}, sender, time.UTC)
	n.logger.SetOutput(io.Discard)
	submitter := &models.User{ID: 1, FirstName: "Ivan"}

	for i := 0; i < 3; i++ {
		err := n.NotifyPending(context.Background(), testCorrection(), submitter)
		if err == nil || errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("attempt %d: expected send error, got %v", i, err)
		}
	}

	err := n.NotifyPending(context.Background(), testCorrection(), submitter)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open breaker, got %v", err)
	}
}
