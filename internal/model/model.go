// Package model holds the persisted entities. Ids are the external
// platform's ids, never auto-generated, so a re-crawl lands on the same
// rows. Association tables carry foreign key pairs only.
package model

// Tables returns every model the store persists, in migration order.
func Tables() []interface{} {
	return []interface{}{
		&Organization{},
		&Repository{},
		&Person{},
		&Progress{},
	}
}
