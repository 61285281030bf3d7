package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/pkg/log"
	"github.com/segmentio/kafka-go"
)

// Handler processes one consumed message value.
type Handler func(key string, value []byte) error

// Consumer tails a topic and feeds every message through a single handler.
type Consumer struct {
	Config *cfg.Config
	Logger log.Logger
	reader *kafka.Reader
}

// NewConsumer creates a consumer on the given topic and group.
func NewConsumer(config *cfg.Config, logger log.Logger, topic, groupID string) (*Consumer, error) {
	if len(config.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Kafka.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		Config: config,
		Logger: logger,
		reader: reader,
	}, nil
}

// Run consumes until the context is cancelled. Handler errors are logged,
// not fatal; the stream keeps moving.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	c.Logger.Info(ctx, "Starting consumer for topic %s", c.reader.Config().Topic)

	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return c.reader.Close()
			}
			c.Logger.Error(ctx, "Error reading message: %v", err)
			continue
		}

		if err := handler(string(message.Key), message.Value); err != nil {
			c.Logger.Error(ctx, "Error handling message with key %s: %v", string(message.Key), err)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
