package models

import "time"

// Event type constants
const (
	EventPriceUpdated       = "PRICE_UPDATED"
	EventNotificationSent   = "NOTIFICATION_SENT"
	EventNotificationFailed = "NOTIFICATION_FAILED"
)

// Event represents a Kafka event for price and notification lifecycle changes.
type Event struct {
	EventType    string           `json:"event_type"`
	Symbol       string           `json:"symbol"`
	StockData    *StockData       `json:"stock_data,omitempty"`
	Notification *NotificationLog `json:"notification,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}
