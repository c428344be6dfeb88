package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification kind constants
const (
	KindOpen  = "open"
	KindClose = "close"
	KindTest  = "test"
)

// Notification status constants
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// NotificationLog represents one SMS dispatch attempt. Rows are append-only:
// every attempt, success or failure, produces exactly one record.
type NotificationLog struct {
	ID           int             `json:"id"`
	Kind         string          `json:"kind"`
	StockPrice   decimal.Decimal `json:"stock_price"`
	PhoneNumber  string          `json:"phone_number"`
	MessageSID   *string         `json:"message_sid,omitempty"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	SentAt       time.Time       `json:"sent_at"`
}
