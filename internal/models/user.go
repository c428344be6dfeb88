package models

import (
	"strings"
	"time"
)

// User represents a registered SMS recipient. Users are soft-deactivated,
// never hard-deleted.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	PhoneNumber  string    `json:"phone_number"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MaskedPhone returns the phone number with only the last 4 digits visible.
func (u *User) MaskedPhone() string {
	return MaskPhone(u.PhoneNumber)
}

// MaskedName returns the name with only the first letter visible.
func (u *User) MaskedName() string {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return "No name"
	}
	if len(name) <= 1 {
		return name
	}
	return name[:1] + strings.Repeat("*", len(name)-1)
}

// MaskPhone masks all but the last 4 digits of a phone number.
func MaskPhone(phone string) string {
	if phone == "" {
		return "No phone number"
	}
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
