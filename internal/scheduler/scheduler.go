// Package scheduler fires the market open and close notification jobs at
// their configured wall-clock times, Monday through Friday, in the market
// time zone.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cjburns0/crwv-tracker/internal/market"
	"github.com/cjburns0/crwv-tracker/internal/models"
)

// StockService is the price lookup surface the jobs need.
type StockService interface {
	CurrentPrice(ctx context.Context) (decimal.Decimal, bool)
	DailyData(ctx context.Context, date time.Time) (*models.StockData, bool)
}

// Notifier sends a notification batch.
type Notifier interface {
	SendToAll(ctx context.Context, kind string, price decimal.Decimal) (int, int)
}

// Scheduler owns the cron runner and its two jobs.
type Scheduler struct {
	stocks   StockService
	notifier Notifier
	calendar *market.Calendar
	logger   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a stopped scheduler.
func New(stocks StockService, notifier Notifier, calendar *market.Calendar, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		stocks:   stocks,
		notifier: notifier,
		calendar: calendar,
		logger:   logger,
	}
}

// Start registers the open and close jobs at the given "HH:MM" trigger times
// and starts the cron runner.
func (s *Scheduler) Start(openTime, closeTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	openSpec, err := cronSpec(openTime)
	if err != nil {
		return fmt.Errorf("invalid open trigger time: %w", err)
	}
	closeSpec, err := cronSpec(closeTime)
	if err != nil {
		return fmt.Errorf("invalid close trigger time: %w", err)
	}

	runner := cron.New(cron.WithLocation(s.calendar.Location()))
	if _, err := runner.AddFunc(openSpec, s.runOpenJob); err != nil {
		return fmt.Errorf("failed to register open job: %w", err)
	}
	if _, err := runner.AddFunc(closeSpec, s.runCloseJob); err != nil {
		return fmt.Errorf("failed to register close job: %w", err)
	}

	runner.Start()
	s.cron = runner
	s.running = true
	s.logger.Info("scheduler started",
		zap.String("open_trigger", openSpec),
		zap.String("close_trigger", closeSpec),
		zap.String("timezone", s.calendar.Location().String()),
	)
	return nil
}

// Stop halts the cron runner and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// runOpenJob sends the market open notification with the current price.
func (s *Scheduler) runOpenJob() {
	defer s.recoverJob("open")
	ctx := context.Background()
	s.logger.Info("running market open notification job")

	price, ok := s.stocks.CurrentPrice(ctx)
	if !ok {
		s.logger.Error("could not fetch current price for market open notification")
		return
	}
	s.notifier.SendToAll(ctx, models.KindOpen, price)
}

// runCloseJob sends the market close notification with the authoritative
// close, falling back to the current price.
func (s *Scheduler) runCloseJob() {
	defer s.recoverJob("close")
	ctx := context.Background()
	s.logger.Info("running market close notification job")

	var closePrice decimal.Decimal
	if snapshot, ok := s.stocks.DailyData(ctx, time.Now().In(s.calendar.Location())); ok {
		closePrice = snapshot.Close
	} else if price, ok := s.stocks.CurrentPrice(ctx); ok {
		closePrice = price
	} else {
		s.logger.Error("could not fetch a price for market close notification")
		return
	}
	s.notifier.SendToAll(ctx, models.KindClose, closePrice)
}

// recoverJob keeps a panic in one job body from taking down the runner or
// future firings.
func (s *Scheduler) recoverJob(kind string) {
	if r := recover(); r != nil {
		s.logger.Error("notification job panicked",
			zap.String("kind", kind),
			zap.Any("panic", r),
		)
	}
}

// cronSpec converts an "HH:MM" trigger time into a Mon-Fri cron expression.
func cronSpec(value string) (string, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return "", fmt.Errorf("expected HH:MM, got %q: %w", value, err)
	}
	return fmt.Sprintf("%d %d * * 1-5", t.Minute(), t.Hour()), nil
}
