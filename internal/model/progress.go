package model

// ProgressID is the key of the singleton checkpoint row.
const ProgressID = "progress"

// Progress records the index of the next organization to process in the
// ordered crawl list.
type Progress struct {
	ID    string `json:"id" gorm:"column:id;primaryKey"`
	Value int    `json:"value" gorm:"column:value"`
}

func (p *Progress) TableName() string {
	return "progress"
}
