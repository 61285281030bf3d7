package db

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Sqlite is a file (or in-memory) backed Connector. Tests and single-user
// local crawls use it so no MySQL server is needed.
type Sqlite struct {
	Path    string
	once    sync.Once
	db      *gorm.DB
	initErr error
}

func NewSqlite(path string) (*Sqlite, error) {
	return &Sqlite{Path: path}, nil
}

var memSeq atomic.Int64

// NewSqliteInMemory opens a private in-memory database; every Connector
// instance gets its own schema. The named shared-cache DSN keeps the
// database alive across the connections gorm pools.
func NewSqliteInMemory() (*Sqlite, error) {
	return NewSqlite(fmt.Sprintf("file:mem%d?mode=memory&cache=shared", memSeq.Add(1)))
}

func (s *Sqlite) Db() (*gorm.DB, error) {
	s.once.Do(func() {
		s.db, s.initErr = gorm.Open(sqlite.Open(s.Path), &gorm.Config{})
	})
	return s.db, s.initErr
}

func (s *Sqlite) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func (s *Sqlite) Migrate(models ...interface{}) error {
	db, err := s.Db()
	if err != nil {
		return err
	}
	return db.AutoMigrate(models...)
}
