package main

import (
	"context"
	"os"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/crawler"
	"github.com/govgraph/gov-crawler/internal/githubapi"
	"github.com/govgraph/gov-crawler/internal/limiter"
	"github.com/govgraph/gov-crawler/internal/store"
	"github.com/govgraph/gov-crawler/pkg/db"
	"github.com/govgraph/gov-crawler/pkg/kafka"
	"github.com/govgraph/gov-crawler/pkg/log"
)

func main() {
	ctx := context.Background()
	logger, _ := log.NewLogrusLogger()

	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		logger.Error(ctx, "Failed to load config: %v", err)
		os.Exit(1)
	}

	mysql, _ := db.NewMysql(config)
	defer mysql.Close()

	st, _ := store.NewStore(config, logger, mysql)
	if err := st.Migrate(); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	governor := limiter.NewGovernor(logger, config.GithubApi.RateLimitBuffer)
	caller := githubapi.NewCaller(logger, config, governor)
	orgCrawler, _ := crawler.NewOrgCrawler(logger, config, st, caller)

	// Crawl events go to Kafka only when a broker is configured.
	var producer *kafka.Producer
	if len(config.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(config, logger, config.Kafka.CrawlTopic)
		if err != nil {
			logger.Error(ctx, "Failed to create kafka producer: %v", err)
			os.Exit(1)
		}
		defer producer.Close()
	}

	driver, _ := crawler.NewDriver(logger, config, st, orgCrawler, producer)

	logger.Info(ctx, "Starting government GitHub crawler")
	if err := driver.Run(ctx); err != nil {
		// The checkpoint stays at the last completed organization; a
		// restart resumes there.
		logger.Error(ctx, "Crawl halted: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Crawl pass completed")
}
