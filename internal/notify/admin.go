package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/models"
	"attendance-bot/pkg/logger"
	"attendance-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// AdminSource список администраторов
type AdminSource interface {
	GetAdmins(ctx context.Context) ([]*models.User, error)
}

// Sender отправка сообщений; *tgbotapi.BotAPI подходит
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminNotifier шлет админам новые заявки с кнопкой одобрения.
// Отправка идет через circuit breaker: если Telegram недоступен, попытки
// не копятся, а сразу завершаются с gobreaker.ErrOpenState.
type AdminNotifier struct {
	admins AdminSource
	sender Sender
	cb     *gobreaker.CircuitBreaker
	loc    *time.Location
	logger *logrus.Logger
}

func NewAdminNotifier(admins AdminSource, sender Sender, loc *time.Location) *AdminNotifier {
	if loc == nil {
		loc = time.Local
	}

	log := logger.New()
	settings := gobreaker.Settings{
		Name:        "Telegram-Admin",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &AdminNotifier{
		admins: admins,
		sender: sender,
		cb:     gobreaker.NewCircuitBreaker(settings),
		loc:    loc,
		logger: log,
	}
}

// NotifyPending отправляет заявку каждому админу. Ошибки по отдельным админам собираются вместе.
func (n *AdminNotifier) NotifyPending(ctx context.Context, c *models.Correction, submitter *models.User) error {
	admins, err := n.admins.GetAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to load admins: %w", err)
	}

	text := n.format(c, submitter)

	var errs []error
	for _, admin := range admins {
		if admin.ID == submitter.ID {
			continue
		}

		msg := tgbotapi.NewMessage(admin.ChatID, text)
		msg.ReplyMarkup = telegram.ApproveKeyboard(c.ID)

		_, err := n.cb.Execute(func() (interface{}, error) {
			return n.sender.Send(msg)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				n.logger.Warn("Circuit breaker is open; skipping admin notifications")
				errs = append(errs, err)
				break
			}
			n.logger.WithError(err).WithField("chat_id", admin.ChatID).Warn("Failed to notify admin")
			errs = append(errs, err)
			continue
		}

		n.logger.WithFields(logrus.Fields{
			"chat_id":       admin.ChatID,
			"correction_id": c.ID,
		}).Debug("Admin notified")
	}

	return errors.Join(errs...)
}

func (n *AdminNotifier) format(c *models.Correction, submitter *models.User) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🔔 Новая заявка на исправление №%d\n", c.ID)
	fmt.Fprintf(&b, "👤 %s\n", submitter.DisplayName())
	fmt.Fprintf(&b, "📄 Запись №%d\n", c.AttendanceID)
	fmt.Fprintf(&b, "⏰ %s - %s\n", c.RequestedStart, c.RequestedEnd)
	for _, r := range c.Rests {
		b.WriteString(r.String() + "\n")
	}
	fmt.Fprintf(&b, "📝 %s\n", c.Reason)
	fmt.Fprintf(&b, "🕒 %s", c.CreatedAt.In(n.loc).Format("02.01.2006 15:04"))

	return b.String()
}
