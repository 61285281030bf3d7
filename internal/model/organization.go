package model

import "time"

type Organization struct {
	ID          int64      `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	Login       string     `json:"login" gorm:"column:login"`
	Name        string     `json:"name" gorm:"column:name"`
	Type        string     `json:"type" gorm:"column:type"`
	Grouping    string     `json:"grouping" gorm:"column:grouping"`
	CreatedDate *time.Time `json:"created_date" gorm:"column:created_date"`
	UpdateDate  *time.Time `json:"update_date" gorm:"column:update_date"`

	Members      []*Person     `json:"members,omitempty" gorm:"many2many:person_organization_member;"`
	Contributors []*Person     `json:"contributors,omitempty" gorm:"many2many:person_organization_contributor;"`
	Repositories []*Repository `json:"repositories,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (o *Organization) TableName() string {
	return "organization"
}
