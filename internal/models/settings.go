package models

import "time"

// Default notification trigger times, US/Eastern wall clock.
const (
	DefaultMarketOpenTime  = "09:30"
	DefaultMarketCloseTime = "16:00"
)

// Settings holds the deployment-wide notification preferences. Exactly one
// logical row exists; it is created lazily with defaults if absent.
type Settings struct {
	ID                   int        `json:"id"`
	PhoneNumber1         *string    `json:"phone_number_1,omitempty"`
	PhoneNumber2         *string    `json:"phone_number_2,omitempty"`
	PhoneNumber3         *string    `json:"phone_number_3,omitempty"`
	PhoneNumber4         *string    `json:"phone_number_4,omitempty"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	MarketOpenTime       string     `json:"market_open_time"`
	MarketCloseTime      string     `json:"market_close_time"`
	SettingsPasswordHash *string    `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// PhoneNumbers returns the configured phone slots, in slot order, skipping
// empty slots.
func (s *Settings) PhoneNumbers() []string {
	var numbers []string
	for _, slot := range []*string{s.PhoneNumber1, s.PhoneNumber2, s.PhoneNumber3, s.PhoneNumber4} {
		if slot != nil && *slot != "" {
			numbers = append(numbers, *slot)
		}
	}
	return numbers
}

// HasPasswordProtection reports whether a settings password is configured.
func (s *Settings) HasPasswordProtection() bool {
	return s.SettingsPasswordHash != nil && *s.SettingsPasswordHash != ""
}
