package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoData is returned when the provider responds successfully but carries
// no usable rows for the requested period.
var ErrNoData = errors.New("no market data for requested period")

// Bar is one OHLCV row as returned by the provider.
type Bar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// Provider is the external market-data port. Implementations own their
// transport, auth and timeout concerns.
type Provider interface {
	// Quote returns the live or last-known price for the tracked symbol.
	Quote(ctx context.Context) (decimal.Decimal, error)
	// History returns ordered daily bars for a provider range such as "5d".
	History(ctx context.Context, rng string) ([]Bar, error)
	// DailyBar returns the single bar for one trading day.
	DailyBar(ctx context.Context, date time.Time) (*Bar, error)
}
