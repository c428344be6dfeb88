package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cjburns0/crwv-tracker/internal/api"
	"github.com/cjburns0/crwv-tracker/internal/cache"
	"github.com/cjburns0/crwv-tracker/internal/config"
	"github.com/cjburns0/crwv-tracker/internal/database"
	"github.com/cjburns0/crwv-tracker/internal/kafka"
	"github.com/cjburns0/crwv-tracker/internal/market"
	"github.com/cjburns0/crwv-tracker/internal/marketdata"
	"github.com/cjburns0/crwv-tracker/internal/notify"
	"github.com/cjburns0/crwv-tracker/internal/observability"
	"github.com/cjburns0/crwv-tracker/internal/scheduler"
	"github.com/cjburns0/crwv-tracker/internal/sms"
	"github.com/cjburns0/crwv-tracker/internal/stock"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.MigrateUp(cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database ready", zap.String("host", cfg.Database.Host))

	location, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		logger.Fatal("failed to load market timezone",
			zap.String("timezone", cfg.Market.Timezone), zap.Error(err))
	}

	settings, err := db.GetOrCreateSettings()
	if err != nil {
		logger.Fatal("failed to load settings", zap.Error(err))
	}

	calendar, err := market.NewCalendar(location, settings.MarketOpenTime, settings.MarketCloseTime)
	if err != nil {
		logger.Fatal("failed to build market calendar", zap.Error(err))
	}

	provider, err := marketdata.NewYahooClient(marketdata.YahooConfig{
		Symbol: cfg.Market.Symbol,
	})
	if err != nil {
		logger.Fatal("failed to build market data client", zap.Error(err))
	}

	var quoteCache stock.QuoteCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := time.Duration(cfg.Redis.QuoteTTLSecs) * time.Second
		quoteCache = cache.NewQuoteCache(client, cfg.Market.Symbol, ttl)
		logger.Info("quote cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var producer *kafka.Producer
	var stockEvents stock.EventPublisher
	var notifyEvents notify.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Market.Symbol)
		stockEvents = producer
		notifyEvents = producer
		logger.Info("event publishing enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	stocks := stock.NewService(db, provider, calendar, quoteCache, stockEvents, logger)

	sender, err := sms.NewTwilioClient(sms.TwilioConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.FromNumber,
		BaseURL:    cfg.Twilio.BaseURL,
	})
	if err != nil {
		logger.Fatal("failed to build sms client", zap.Error(err))
	}

	dispatcher := notify.NewDispatcher(db, sender, notifyEvents, cfg.Market.Symbol, location, logger)

	sched := scheduler.New(stocks, dispatcher, calendar, logger)
	if err := sched.Start(settings.MarketOpenTime, settings.MarketCloseTime); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	handler := api.NewHandler(db, stocks, dispatcher, cfg.Market.Symbol, logger)
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting http server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("failed to close kafka producer", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}
