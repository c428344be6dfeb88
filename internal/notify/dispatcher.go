// Package notify sends SMS price notifications and records every dispatch
// attempt. Failures never propagate outward: a failed send is a logged
// NotificationLog row and a false return, nothing more.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cjburns0/crwv-tracker/internal/models"
	"github.com/cjburns0/crwv-tracker/internal/sms"
)

// Store is the persistence subset the dispatcher needs.
type Store interface {
	CreateNotificationLog(n *models.NotificationLog) error
	GetOrCreateSettings() (*models.Settings, error)
	GetActiveUsers() ([]*models.User, error)
}

// EventPublisher publishes notification outcomes, best-effort.
type EventPublisher interface {
	PublishNotificationResult(ctx context.Context, n *models.NotificationLog) error
}

// Dispatcher resolves recipients and sends one message per recipient.
type Dispatcher struct {
	store    Store
	sender   sms.Sender
	events   EventPublisher
	symbol   string
	location *time.Location
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. events may be nil.
func NewDispatcher(
	store Store,
	sender sms.Sender,
	events EventPublisher,
	symbol string,
	location *time.Location,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Dispatcher{
		store:    store,
		sender:   sender,
		events:   events,
		symbol:   symbol,
		location: location,
		logger:   logger,
	}
}

// SendToOne sends a single kind-specific message and records the attempt.
// Returns true only when the SMS gateway accepted the message.
func (d *Dispatcher) SendToOne(ctx context.Context, phone, kind string, price decimal.Decimal) bool {
	body := d.formatMessage(kind, price, time.Now())

	sid, err := d.sender.Send(ctx, phone, body)
	if err != nil {
		d.logger.Error("failed to send notification",
			zap.String("kind", kind),
			zap.String("recipient", models.MaskPhone(phone)),
			zap.Error(err),
		)
		errText := err.Error()
		d.record(ctx, &models.NotificationLog{
			Kind:         kind,
			StockPrice:   price,
			PhoneNumber:  phone,
			Status:       models.StatusFailed,
			ErrorMessage: &errText,
		})
		return false
	}

	d.logger.Info("notification sent",
		zap.String("kind", kind),
		zap.String("recipient", models.MaskPhone(phone)),
		zap.String("message_sid", sid),
	)
	d.record(ctx, &models.NotificationLog{
		Kind:        kind,
		StockPrice:  price,
		PhoneNumber: phone,
		MessageSID:  &sid,
		Status:      models.StatusSent,
	})
	return true
}

// SendToAll sends to every active recipient. One recipient's failure never
// prevents attempts to the rest. Returns the number of successful sends and
// the number of recipients.
func (d *Dispatcher) SendToAll(ctx context.Context, kind string, price decimal.Decimal) (int, int) {
	settings, err := d.store.GetOrCreateSettings()
	if err != nil {
		d.logger.Error("failed to load notification settings", zap.Error(err))
		return 0, 0
	}

	if !settings.NotificationsEnabled {
		d.logger.Info("notifications are disabled, skipping", zap.String("kind", kind))
		return 0, 0
	}

	recipients := d.resolveRecipients(settings)
	if len(recipients) == 0 {
		d.logger.Warn("no recipients configured for notifications", zap.String("kind", kind))
		return 0, 0
	}

	sent := 0
	for _, phone := range recipients {
		if d.SendToOne(ctx, phone, kind, price) {
			sent++
		}
	}

	d.logger.Info("notification batch complete",
		zap.String("kind", kind),
		zap.Int("sent", sent),
		zap.Int("total", len(recipients)),
	)
	return sent, len(recipients)
}

// resolveRecipients returns active user phones ordered by user id, then the
// configured settings slots in slot order, deduplicated.
func (d *Dispatcher) resolveRecipients(settings *models.Settings) []string {
	var recipients []string
	seen := make(map[string]bool)

	users, err := d.store.GetActiveUsers()
	if err != nil {
		d.logger.Error("failed to load active users", zap.Error(err))
	}
	for _, u := range users {
		if u.PhoneNumber != "" && !seen[u.PhoneNumber] {
			seen[u.PhoneNumber] = true
			recipients = append(recipients, u.PhoneNumber)
		}
	}

	for _, phone := range settings.PhoneNumbers() {
		if !seen[phone] {
			seen[phone] = true
			recipients = append(recipients, phone)
		}
	}
	return recipients
}

// record persists one attempt row. A failure here is logged and swallowed so
// that dispatch never raises outward.
func (d *Dispatcher) record(ctx context.Context, entry *models.NotificationLog) {
	if err := d.store.CreateNotificationLog(entry); err != nil {
		d.logger.Error("failed to record notification attempt",
			zap.String("kind", entry.Kind),
			zap.String("status", entry.Status),
			zap.Error(err),
		)
		return
	}
	if d.events != nil {
		if err := d.events.PublishNotificationResult(ctx, entry); err != nil {
			d.logger.Warn("failed to publish notification event", zap.Error(err))
		}
	}
}

func (d *Dispatcher) formatMessage(kind string, price decimal.Decimal, now time.Time) string {
	stamp := now.In(d.location).Format("03:04 PM") + " ET"
	amount := price.StringFixed(2)

	switch kind {
	case models.KindOpen:
		return fmt.Sprintf("%s opened at $%s at %s", d.symbol, amount, stamp)
	case models.KindClose:
		return fmt.Sprintf("%s closed at $%s at %s", d.symbol, amount, stamp)
	case models.KindTest:
		return fmt.Sprintf("Test: %s price is $%s at %s. Notifications working.", d.symbol, amount, stamp)
	default:
		return fmt.Sprintf("%s: $%s at %s", d.symbol, amount, stamp)
	}
}
