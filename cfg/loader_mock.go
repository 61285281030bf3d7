package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "gov-crawler",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "gov_crawler",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// GithubApi
		GithubApi: GithubApi{
			AccessToken:       "",
			ApiUrl:            "https://api.github.com",
			PerPage:           100,
			RateLimitBuffer:   150,
			RequestsPerSecond: 10,
			ThrottleDelay:     200,
		},

		// Kafka is disabled unless brokers are configured
		Kafka: Kafka{
			Brokers:       nil,
			CrawlTopic:    "gov-crawler.crawl-events",
			ConsumerGroup: "gov-crawler-report",
		},

		// Crawler input lists
		Crawler: Crawler{
			GovernmentList: "government.github.com/_data/governments.yml",
			CivicList:      "government.github.com/_data/civic_hackers.yml",
		},

		// Graph
		Graph: Graph{
			DataDir:   "data",
			OutputDir: "graphs",
		},
	}, nil
}
