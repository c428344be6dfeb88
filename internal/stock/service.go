// Package stock implements the market data gateway and the daily
// price reconciliation over it. All data-unavailable outcomes are expressed
// as absent values, never as errors; callers branch on presence.
package stock

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cjburns0/crwv-tracker/internal/database"
	"github.com/cjburns0/crwv-tracker/internal/market"
	"github.com/cjburns0/crwv-tracker/internal/marketdata"
	"github.com/cjburns0/crwv-tracker/internal/models"
)

// freshnessWindow is how long a persisted snapshot is served without going
// back to the provider.
const freshnessWindow = time.Hour

// Store is the persistence subset the gateway needs. The gateway is the only
// component that writes stock_data rows.
type Store interface {
	UpsertStockData(s *models.StockData) error
	GetStockDataByDate(date time.Time) (*models.StockData, error)
	GetRecentStockData(limit int) ([]*models.StockData, error)
}

// QuoteCache caches the current price with a short TTL.
type QuoteCache interface {
	Get(ctx context.Context) (decimal.Decimal, bool)
	Set(ctx context.Context, price decimal.Decimal) error
}

// EventPublisher publishes price-update events, best-effort.
type EventPublisher interface {
	PublishPriceUpdated(ctx context.Context, s *models.StockData) error
}

// Service wraps the external price provider with caching, persistence of
// daily snapshots and the change computations built on them.
type Service struct {
	store    Store
	provider marketdata.Provider
	calendar *market.Calendar
	cache    QuoteCache
	events   EventPublisher
	logger   *zap.Logger
}

// NewService creates the gateway. cache and events may be nil; they disable
// quote caching and event publishing respectively.
func NewService(
	store Store,
	provider marketdata.Provider,
	calendar *market.Calendar,
	cache QuoteCache,
	events EventPublisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		provider: provider,
		calendar: calendar,
		cache:    cache,
		events:   events,
		logger:   logger,
	}
}

// CurrentPrice returns the live or last-known price. Provider failure is
// non-fatal: it is logged and reported as absence.
func (s *Service) CurrentPrice(ctx context.Context) (decimal.Decimal, bool) {
	if s.cache != nil {
		if price, ok := s.cache.Get(ctx); ok {
			return price, true
		}
	}

	price, err := s.provider.Quote(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch current price", zap.Error(err))
		return decimal.Zero, false
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, price); err != nil {
			s.logger.Debug("failed to cache current price", zap.Error(err))
		}
	}
	return price, true
}

// History returns ordered daily bars for a provider range such as "5d".
// Empty or failed lookups are reported as absence.
func (s *Service) History(ctx context.Context, rng string) ([]marketdata.Bar, bool) {
	bars, err := s.provider.History(ctx, rng)
	if err != nil {
		s.logger.Warn("failed to fetch history", zap.String("range", rng), zap.Error(err))
		return nil, false
	}
	if len(bars) == 0 {
		return nil, false
	}
	return bars, true
}

// DailyData returns the OHLCV snapshot for a date. A persisted row refreshed
// within the last hour is served as-is; otherwise exactly one trading day is
// fetched from the provider and upserted. On fetch failure nothing is
// written and absence is returned.
func (s *Service) DailyData(ctx context.Context, date time.Time) (*models.StockData, bool) {
	day := normalizeDate(date)

	existing, err := s.store.GetStockDataByDate(day)
	if err == nil && time.Since(existing.LastUpdated) < freshnessWindow {
		return existing, true
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		s.logger.Error("failed to read stock data", zap.Error(err))
	}

	bar, err := s.provider.DailyBar(ctx, day)
	if err != nil {
		s.logger.Warn("failed to fetch daily bar",
			zap.String("date", day.Format("2006-01-02")),
			zap.Error(err),
		)
		return nil, false
	}

	snapshot := &models.StockData{
		Date:        day,
		Open:        bar.Open,
		High:        bar.High,
		Low:         bar.Low,
		Close:       bar.Close,
		Volume:      bar.Volume,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.store.UpsertStockData(snapshot); err != nil {
		s.logger.Error("failed to upsert stock data", zap.Error(err))
		return nil, false
	}

	if s.events != nil {
		if err := s.events.PublishPriceUpdated(ctx, snapshot); err != nil {
			s.logger.Warn("failed to publish price update", zap.Error(err))
		}
	}

	return snapshot, true
}

// RecentData returns the latest persisted snapshots, newest first.
func (s *Service) RecentData(limit int) ([]*models.StockData, error) {
	return s.store.GetRecentStockData(limit)
}

// IsMarketOpen reports whether now falls within trading hours.
func (s *Service) IsMarketOpen(now time.Time) bool {
	return s.calendar.IsOpen(now)
}

// tradingDate reduces an instant to its calendar date in the market's zone,
// normalized to midnight UTC to match the stock_data date key.
func (s *Service) tradingDate(now time.Time) time.Time {
	local := now.In(s.calendar.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizeDate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
