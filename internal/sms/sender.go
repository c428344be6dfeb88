package sms

import "context"

// Sender is the outbound SMS port. Send returns the provider message id on
// success and an error on any transport or provider failure.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}
