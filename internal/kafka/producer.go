package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cjburns0/crwv-tracker/internal/models"
)

// Producer publishes price and notification lifecycle events
type Producer struct {
	writer *kafka.Writer
	symbol string
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic, symbol string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		symbol: symbol,
		topic:  topic,
	}
}

// PublishPriceUpdated publishes an event for an upserted daily snapshot
func (p *Producer) PublishPriceUpdated(ctx context.Context, data *models.StockData) error {
	return p.publish(ctx, p.priceEvent(data))
}

// PublishNotificationResult publishes an event for one dispatch attempt
func (p *Producer) PublishNotificationResult(ctx context.Context, entry *models.NotificationLog) error {
	return p.publish(ctx, p.notificationEvent(entry))
}

func (p *Producer) priceEvent(data *models.StockData) models.Event {
	return models.Event{
		EventType: models.EventPriceUpdated,
		Symbol:    p.symbol,
		StockData: data,
		Timestamp: time.Now(),
	}
}

func (p *Producer) notificationEvent(entry *models.NotificationLog) models.Event {
	eventType := models.EventNotificationSent
	if entry.Status == models.StatusFailed {
		eventType = models.EventNotificationFailed
	}
	return models.Event{
		EventType:    eventType,
		Symbol:       p.symbol,
		Notification: entry,
		Timestamp:    time.Now(),
	}
}

func (p *Producer) publish(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(p.symbol),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
