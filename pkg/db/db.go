package db

import "gorm.io/gorm"

// Connector hands out the shared gorm handle. Components receive a
// Connector explicitly instead of reaching for a process-wide session.
type Connector interface {
	Db() (*gorm.DB, error)
	Migrate(models ...interface{}) error
	Close() error
}
