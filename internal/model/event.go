package model

// CrawlEvent is the per-organization completion message published to Kafka
// when an event broker is configured.
type CrawlEvent struct {
	Index          int    `json:"index"`
	OrganizationID int64  `json:"organization_id"`
	Login          string `json:"login"`
	Grouping       string `json:"grouping"`
	Repositories   int    `json:"repositories"`
	Members        int    `json:"members"`
	Contributors   int    `json:"contributors"`
	Skipped        bool   `json:"skipped"`
}
