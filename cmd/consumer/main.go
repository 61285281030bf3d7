// Tails the crawl-event topic and prints a running report. Useful when a
// long pass runs on another machine and only Kafka is reachable.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/model"
	"github.com/govgraph/gov-crawler/pkg/kafka"
	"github.com/govgraph/gov-crawler/pkg/log"
)

func main() {
	logger, _ := log.NewCslLogger()

	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer, err := kafka.NewConsumer(config, logger, config.Kafka.CrawlTopic, config.Kafka.ConsumerGroup)
	if err != nil {
		logger.Error(ctx, "Failed to create consumer: %v", err)
		os.Exit(1)
	}
	defer consumer.Close()

	// Cancel the consume loop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info(ctx, "Received shutdown signal, stopping consumer")
		cancel()
	}()

	var processed, skipped, repositories, contributors int
	err = consumer.Run(ctx, func(key string, value []byte) error {
		event := model.CrawlEvent{}
		if err := json.Unmarshal(value, &event); err != nil {
			return fmt.Errorf("failed to decode crawl event: %w", err)
		}

		if event.Skipped {
			skipped++
			logger.Warn(ctx, "#%d %s skipped (not found upstream)", event.Index, event.Login)
			return nil
		}

		processed++
		repositories += event.Repositories
		contributors += event.Contributors
		logger.Info(ctx, "#%d %s (%s): %d repos, %d members, %d contributors | totals: %d orgs, %d skipped, %d repos, %d contributors",
			event.Index, event.Login, event.Grouping,
			event.Repositories, event.Members, event.Contributors,
			processed, skipped, repositories, contributors)
		return nil
	})
	if err != nil {
		logger.Error(ctx, "Consumer stopped with error: %v", err)
		os.Exit(1)
	}
}
