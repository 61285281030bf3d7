package model

import "time"

// Person is a platform account seen as an organization member or a
// repository contributor. Membership and contribution are independent
// relationship sets on the organization and repository sides.
type Person struct {
	ID          int64      `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	Login       string     `json:"login" gorm:"column:login"`
	Name        string     `json:"name" gorm:"column:name"`
	CreatedDate *time.Time `json:"created_date" gorm:"column:created_date"`
	UpdateDate  *time.Time `json:"update_date" gorm:"column:update_date"`
}

func (p *Person) TableName() string {
	return "person"
}
