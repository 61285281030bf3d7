package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	GithubApi struct {
		AccessToken       string
		ApiUrl            string
		PerPage           int
		RateLimitBuffer   int
		RequestsPerSecond int
		ThrottleDelay     int
	}

	Kafka struct {
		Brokers       []string
		CrawlTopic    string
		ConsumerGroup string
	}

	Crawler struct {
		GovernmentList string
		CivicList      string
	}

	Graph struct {
		DataDir   string
		OutputDir string
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	GithubApi GithubApi
	Kafka     Kafka
	Crawler   Crawler
	Graph     Graph
}
