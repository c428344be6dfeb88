package stock

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cjburns0/crwv-tracker/internal/database"
	"github.com/cjburns0/crwv-tracker/internal/market"
)

// Changes holds the reconciled view of today's price. Percentage fields are
// nil when no comparison close is available, including when the comparison
// close is zero.
type Changes struct {
	CurrentPrice        decimal.Decimal  `json:"current_price"`
	TodayClose          decimal.Decimal  `json:"today_close"`
	DailyChangePercent  *decimal.Decimal `json:"daily_change_percent,omitempty"`
	WeeklyChangePercent *decimal.Decimal `json:"weekly_change_percent,omitempty"`
}

// ComputeChanges derives today's close and the percentage changes versus the
// previous trading day and the trading day seven sessions back. It returns
// nil only when no current price is available; missing history degrades the
// individual percentages to nil instead.
func (s *Service) ComputeChanges(ctx context.Context, now time.Time) *Changes {
	current, ok := s.CurrentPrice(ctx)
	if !ok {
		s.logger.Warn("cannot compute changes without a current price")
		return nil
	}

	today := s.tradingDate(now)
	changes := &Changes{
		CurrentPrice: current,
		TodayClose:   s.resolveTodayClose(ctx, now, today, current),
	}

	// Gaps in persisted history (holidays) make the calendar walk and the
	// recent-rows fallback disagree; both paths are kept as-is.
	yesterdayClose := s.lookupClose(market.PreviousTradingDay(today), 5, 1)
	changes.DailyChangePercent = percentChange(changes.TodayClose, yesterdayClose)

	weekAgoClose := s.lookupClose(market.TradingDaysBack(today, 7), 7, 6)
	changes.WeeklyChangePercent = percentChange(current, weekAgoClose)

	return changes
}

// resolveTodayClose picks the authoritative close for today: the live price
// while the market is open, otherwise a persisted snapshot, a fresh daily
// fetch, and finally the live price again.
func (s *Service) resolveTodayClose(ctx context.Context, now, today time.Time, current decimal.Decimal) decimal.Decimal {
	if s.calendar.IsOpen(now) {
		return current
	}
	if row, err := s.store.GetStockDataByDate(today); err == nil {
		return row.Close
	} else if !errors.Is(err, database.ErrNotFound) {
		s.logger.Error("failed to read today's stock data", zap.Error(err))
	}
	if snapshot, ok := s.DailyData(ctx, today); ok {
		return snapshot.Close
	}
	return current
}

// lookupClose finds the close for a target date, falling back to the row at
// fallbackIndex within the latest fallbackLimit persisted rows (newest
// first). Returns nil when neither source has it.
func (s *Service) lookupClose(date time.Time, fallbackLimit, fallbackIndex int) *decimal.Decimal {
	if row, err := s.store.GetStockDataByDate(date); err == nil {
		return &row.Close
	} else if !errors.Is(err, database.ErrNotFound) {
		s.logger.Error("failed to read stock data",
			zap.String("date", date.Format("2006-01-02")),
			zap.Error(err),
		)
	}

	recent, err := s.store.GetRecentStockData(fallbackLimit)
	if err != nil {
		s.logger.Error("failed to read recent stock data", zap.Error(err))
		return nil
	}
	if fallbackIndex >= len(recent) {
		return nil
	}
	return &recent[fallbackIndex].Close
}

// percentChange computes (price-base)/base*100, or nil when base is absent
// or zero.
func percentChange(price decimal.Decimal, base *decimal.Decimal) *decimal.Decimal {
	if base == nil || base.IsZero() {
		return nil
	}
	change := price.Sub(*base).Div(*base).Mul(decimal.NewFromInt(100))
	return &change
}
