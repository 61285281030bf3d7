package model

import "time"

// Repository belongs to an organization and optionally records where it
// was forked from. The source_* columns stay null for repositories the
// platform reports no fork origin for; SourceGovernment and SourceCivic
// classify the fork origin's owner against the input lists.
type Repository struct {
	ID              int64      `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	OrganizationID  *int64     `json:"organization_id" gorm:"column:organization_id"`
	Name            string     `json:"name" gorm:"column:name"`
	Language        string     `json:"language" gorm:"column:language"`
	License         *string    `json:"license" gorm:"column:license"`
	Fork            bool       `json:"fork" gorm:"column:fork"`
	PushDate        *time.Time `json:"push_date" gorm:"column:push_date"`
	CreatedDate     *time.Time `json:"created_date" gorm:"column:created_date"`
	ForksCount      int        `json:"forks_count" gorm:"column:forks_count"`
	StargazersCount int        `json:"stargazers_count" gorm:"column:stargazers_count"`
	NetworkCount    int        `json:"network_count" gorm:"column:network_count"`
	WatchersCount   int        `json:"watchers_count" gorm:"column:watchers_count"`

	SourceGovernment     bool    `json:"source_government" gorm:"column:source_government"`
	SourceCivic          bool    `json:"source_civic" gorm:"column:source_civic"`
	SourceOwnerID        *int64  `json:"source_owner_id" gorm:"column:source_owner_id"`
	SourceOwnerLogin     *string `json:"source_owner_login" gorm:"column:source_owner_login"`
	SourceRepositoryID   *int64  `json:"source_repository_id" gorm:"column:source_repository_id"`
	SourceRepositoryName *string `json:"source_repository_name" gorm:"column:source_repository_name"`

	Contributors []*Person `json:"contributors,omitempty" gorm:"many2many:person_repository_contributor;"`
}

func (r *Repository) TableName() string {
	return "repository"
}
