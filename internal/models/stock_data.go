package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockData represents the persisted daily OHLCV snapshot for one calendar date.
// The date is the unique key; there is at most one row per date.
type StockData struct {
	ID          int             `json:"id"`
	Date        time.Time       `json:"date"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume      int64           `json:"volume"`
	LastUpdated time.Time       `json:"last_updated"`
}
