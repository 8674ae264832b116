// Package messaging publishes rating events for offline analytics.
// Publishing is fire-and-forget from the caller's perspective; a
// failed publish is logged and never affects the rating flow.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/config"
	"github.com/ausflug/ausflug/pkg/models"
)

const DefaultRatingTopic = "rating-events"

// Publisher is satisfied by the Kafka producer and the no-op used when
// messaging is disabled.
type Publisher interface {
	PublishRating(ctx context.Context, event models.RatingEvent) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *logrus.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultRatingTopic
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // Key by session so a session's events stay ordered
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) PublishRating(ctx context.Context, event models.RatingEvent) error {
	message, err := buildMessage(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.logger.WithError(err).WithField("session_id", event.SessionID).Error("Failed to publish rating event")
		return fmt.Errorf("failed to write rating event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"session_id":  event.SessionID,
		"activity_id": event.ActivityID,
		"rating":      event.Rating,
	}).Debug("Rating event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close rating publisher: %w", err)
	}
	return nil
}

func buildMessage(event models.RatingEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal rating event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.SessionID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "session_id", Value: []byte(event.SessionID.String())},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRating(context.Context, models.RatingEvent) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }
