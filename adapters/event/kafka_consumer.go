package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const defaultConsumerGroup = "academic-asset-cleanup"

// messageReader is satisfied by *kafka.Reader.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type AcademicEventHandler func(ctx context.Context, e service.AcademicEvent) error

type KafkaConsumer struct {
	reader     messageReader
	logger     logger.Logger
	retryDelay time.Duration
}

func NewKafkaConsumer(cfg config.Config, log logger.Logger) (*KafkaConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = defaultConsumerGroup
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    TopicAcademicEvents,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	log.Info("Initialize Kafka Consumer successfully.", zap.String("topic", TopicAcademicEvents), zap.String("group_id", groupID))
	return &KafkaConsumer{reader: reader, logger: log, retryDelay: time.Second}, nil
}

// Run dispatches every event to handle until ctx is cancelled. Undecodable
// messages are committed and skipped; messages whose handler fails stay
// uncommitted so they are redelivered after a rebalance.
func (c *KafkaConsumer) Run(ctx context.Context, handle AcademicEventHandler) error {
	c.logger.Info("Worker listening on topic", zap.String("topic", TopicAcademicEvents))
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("Failed to read message from Kafka", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		e, err := DecodeAcademicEvent(msg)
		if err != nil {
			c.logger.Warn("Skipping undecodable academic event", zap.Error(err), zap.Int64("offset", msg.Offset))
			c.commit(ctx, msg)
			continue
		}

		c.logger.Debug("Processing academic event",
			zap.String("event_type", string(e.EventType)),
			zap.String("user_id", e.UserID.String()),
		)
		if err := handle(ctx, e); err != nil {
			c.logger.Error("Failed to process academic event", err,
				zap.String("event_type", string(e.EventType)),
				zap.Int64("offset", msg.Offset),
			)
			continue
		}
		c.commit(ctx, msg)
	}
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}

func (c *KafkaConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", err)
	}
	c.logger.Info("Closed Kafka Consumer")
}
