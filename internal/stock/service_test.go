package stock

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjburns0/crwv-tracker/internal/database"
	"github.com/cjburns0/crwv-tracker/internal/market"
	"github.com/cjburns0/crwv-tracker/internal/marketdata"
	"github.com/cjburns0/crwv-tracker/internal/models"
)

type fakeStore struct {
	rows      map[string]*models.StockData
	upserts   int
	upsertErr error
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*models.StockData)}
}

func dateKey(d time.Time) string { return d.Format("2006-01-02") }

func (f *fakeStore) UpsertStockData(s *models.StockData) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	if existing, ok := f.rows[dateKey(s.Date)]; ok {
		s.ID = existing.ID
	} else {
		f.nextID++
		s.ID = f.nextID
	}
	copied := *s
	f.rows[dateKey(s.Date)] = &copied
	return nil
}

func (f *fakeStore) GetStockDataByDate(date time.Time) (*models.StockData, error) {
	row, ok := f.rows[dateKey(date)]
	if !ok {
		return nil, fmt.Errorf("stock data for %s: %w", dateKey(date), database.ErrNotFound)
	}
	copied := *row
	return &copied, nil
}

func (f *fakeStore) GetRecentStockData(limit int) ([]*models.StockData, error) {
	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	var out []*models.StockData
	for _, k := range keys {
		if len(out) == limit {
			break
		}
		copied := *f.rows[k]
		out = append(out, &copied)
	}
	return out, nil
}

type fakeProvider struct {
	quote      decimal.Decimal
	quoteErr   error
	quoteCalls int

	bar      *marketdata.Bar
	barErr   error
	barCalls int

	bars       []marketdata.Bar
	historyErr error
}

func (f *fakeProvider) Quote(ctx context.Context) (decimal.Decimal, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return decimal.Zero, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeProvider) History(ctx context.Context, rng string) ([]marketdata.Bar, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.bars, nil
}

func (f *fakeProvider) DailyBar(ctx context.Context, date time.Time) (*marketdata.Bar, error) {
	f.barCalls++
	if f.barErr != nil {
		return nil, f.barErr
	}
	bar := *f.bar
	bar.Date = date
	return &bar, nil
}

type fakeQuoteCache struct {
	price decimal.Decimal
	ok    bool
	sets  int
}

func (f *fakeQuoteCache) Get(ctx context.Context) (decimal.Decimal, bool) { return f.price, f.ok }
func (f *fakeQuoteCache) Set(ctx context.Context, price decimal.Decimal) error {
	f.sets++
	f.price = price
	return nil
}

func utcCalendar(t *testing.T) *market.Calendar {
	t.Helper()
	cal, err := market.NewCalendar(time.UTC, "09:30", "16:00")
	require.NoError(t, err)
	return cal
}

func newService(store Store, provider marketdata.Provider, cal *market.Calendar, cache QuoteCache) *Service {
	return NewService(store, provider, cal, cache, nil, nil)
}

func TestCurrentPrice(t *testing.T) {
	t.Run("returns provider quote", func(t *testing.T) {
		provider := &fakeProvider{quote: decimal.NewFromFloat(101.5)}
		svc := newService(newFakeStore(), provider, utcCalendar(t), nil)

		price, ok := svc.CurrentPrice(context.Background())
		require.True(t, ok)
		assert.Equal(t, "101.5", price.String())
	})

	t.Run("provider error is absence, not failure", func(t *testing.T) {
		provider := &fakeProvider{quoteErr: fmt.Errorf("connection refused")}
		svc := newService(newFakeStore(), provider, utcCalendar(t), nil)

		_, ok := svc.CurrentPrice(context.Background())
		assert.False(t, ok)
	})

	t.Run("cache hit skips provider", func(t *testing.T) {
		provider := &fakeProvider{quote: decimal.NewFromFloat(101.5)}
		cache := &fakeQuoteCache{price: decimal.NewFromFloat(99.0), ok: true}
		svc := newService(newFakeStore(), provider, utcCalendar(t), cache)

		price, ok := svc.CurrentPrice(context.Background())
		require.True(t, ok)
		assert.Equal(t, "99", price.String())
		assert.Zero(t, provider.quoteCalls)
	})

	t.Run("cache miss fetches and fills cache", func(t *testing.T) {
		provider := &fakeProvider{quote: decimal.NewFromFloat(101.5)}
		cache := &fakeQuoteCache{}
		svc := newService(newFakeStore(), provider, utcCalendar(t), cache)

		_, ok := svc.CurrentPrice(context.Background())
		require.True(t, ok)
		assert.Equal(t, 1, provider.quoteCalls)
		assert.Equal(t, 1, cache.sets)
	})
}

func TestDailyData(t *testing.T) {
	day := time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC)
	bar := &marketdata.Bar{
		Open:   decimal.NewFromFloat(98.0),
		High:   decimal.NewFromFloat(100.0),
		Low:    decimal.NewFromFloat(97.0),
		Close:  decimal.NewFromFloat(99.5),
		Volume: 1000,
	}

	t.Run("fetches and creates exactly one row", func(t *testing.T) {
		store := newFakeStore()
		provider := &fakeProvider{bar: bar}
		svc := newService(store, provider, utcCalendar(t), nil)

		snapshot, ok := svc.DailyData(context.Background(), day)
		require.True(t, ok)
		assert.Equal(t, "99.5", snapshot.Close.String())
		assert.Equal(t, int64(1000), snapshot.Volume)
		assert.Equal(t, 1, store.upserts)
		assert.Len(t, store.rows, 1)
	})

	t.Run("fetch failure creates no row", func(t *testing.T) {
		store := newFakeStore()
		provider := &fakeProvider{barErr: marketdata.ErrNoData}
		svc := newService(store, provider, utcCalendar(t), nil)

		_, ok := svc.DailyData(context.Background(), day)
		assert.False(t, ok)
		assert.Zero(t, store.upserts)
		assert.Empty(t, store.rows)
	})

	t.Run("second call within an hour is served from storage", func(t *testing.T) {
		store := newFakeStore()
		provider := &fakeProvider{bar: bar}
		svc := newService(store, provider, utcCalendar(t), nil)

		first, ok := svc.DailyData(context.Background(), day)
		require.True(t, ok)
		second, ok := svc.DailyData(context.Background(), day)
		require.True(t, ok)

		assert.Equal(t, 1, provider.barCalls)
		assert.Equal(t, 1, store.upserts)
		assert.True(t, first.Close.Equal(second.Close))
		assert.True(t, first.Open.Equal(second.Open))
	})

	t.Run("stale row triggers a refetch and upsert", func(t *testing.T) {
		store := newFakeStore()
		stale := &models.StockData{
			Date:        day,
			Close:       decimal.NewFromFloat(90.0),
			LastUpdated: time.Now().UTC().Add(-2 * time.Hour),
		}
		require.NoError(t, store.UpsertStockData(stale))
		store.upserts = 0

		provider := &fakeProvider{bar: bar}
		svc := newService(store, provider, utcCalendar(t), nil)

		snapshot, ok := svc.DailyData(context.Background(), day)
		require.True(t, ok)
		assert.Equal(t, "99.5", snapshot.Close.String())
		assert.Equal(t, 1, provider.barCalls)
		assert.Equal(t, 1, store.upserts)
		assert.Len(t, store.rows, 1)
	})

	t.Run("upsert failure is absence", func(t *testing.T) {
		store := newFakeStore()
		store.upsertErr = fmt.Errorf("disk full")
		provider := &fakeProvider{bar: bar}
		svc := newService(store, provider, utcCalendar(t), nil)

		_, ok := svc.DailyData(context.Background(), day)
		assert.False(t, ok)
	})
}

func TestHistory(t *testing.T) {
	t.Run("returns bars", func(t *testing.T) {
		provider := &fakeProvider{bars: []marketdata.Bar{{Close: decimal.NewFromFloat(99.5)}}}
		svc := newService(newFakeStore(), provider, utcCalendar(t), nil)

		bars, ok := svc.History(context.Background(), "5d")
		require.True(t, ok)
		assert.Len(t, bars, 1)
	})

	t.Run("provider error is absence", func(t *testing.T) {
		provider := &fakeProvider{historyErr: marketdata.ErrNoData}
		svc := newService(newFakeStore(), provider, utcCalendar(t), nil)

		_, ok := svc.History(context.Background(), "5d")
		assert.False(t, ok)
	})

	t.Run("empty bars without error is absence", func(t *testing.T) {
		provider := &fakeProvider{bars: []marketdata.Bar{}}
		svc := newService(newFakeStore(), provider, utcCalendar(t), nil)

		_, ok := svc.History(context.Background(), "5d")
		assert.False(t, ok)
	})
}
