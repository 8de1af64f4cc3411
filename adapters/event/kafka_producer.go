package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const (
	TopicAcademicEvents = "academic.events"
)

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	AcademicEventsWriter messageWriter
	logger               logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	academicWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicAcademicEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{
		AcademicEventsWriter: academicWriter,
		logger:               log,
	}, nil
}

// PublishAcademicEvent keys messages by user id so one user's events stay
// ordered within a partition.
func (c *KafkaProducerClient) PublishAcademicEvent(ctx context.Context, e service.AcademicEvent) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cannot marshal academic event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}
	if err := c.AcademicEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("cannot publish %s event: %w", e.EventType, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.AcademicEventsWriter != nil {
		if err := c.AcademicEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

// DecodeAcademicEvent parses a message read from TopicAcademicEvents.
func DecodeAcademicEvent(msg kafka.Message) (service.AcademicEvent, error) {
	var e service.AcademicEvent
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return e, fmt.Errorf("cannot decode academic event: %w", err)
	}
	if e.EventType == "" {
		return e, fmt.Errorf("academic event without event_type")
	}
	return e, nil
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishAcademicEvent(context.Context, service.AcademicEvent) error { return nil }
