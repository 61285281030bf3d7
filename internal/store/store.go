// Package store is the idempotent persistence layer. Every entity write is
// an atomic insert-or-update keyed on the platform's id, run inside a
// transaction so a failed write never leaves a half-committed row, and the
// persisted row is returned so callers can wire relationships immediately.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/model"
	"github.com/govgraph/gov-crawler/pkg/db"
	"github.com/govgraph/gov-crawler/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	Config *cfg.Config
	Logger log.Logger
	Db     db.Connector
}

func NewStore(config *cfg.Config, logger log.Logger, conn db.Connector) (*Store, error) {
	return &Store{
		Config: config,
		Logger: logger,
		Db:     conn,
	}, nil
}

// Migrate creates the entity tables and the three association tables.
func (s *Store) Migrate() error {
	return s.Db.Migrate(model.Tables()...)
}

// UpsertOrganization persists the organization's scalar fields. The
// relationship sets are replaced separately once their members exist.
func (s *Store) UpsertOrganization(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	gdb, err := s.Db.Db()
	if err != nil {
		return nil, err
	}

	out := &model.Organization{}
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &model.Organization{
			ID:          org.ID,
			Login:       org.Login,
			Name:        org.Name,
			Type:        org.Type,
			Grouping:    org.Grouping,
			CreatedDate: org.CreatedDate,
			UpdateDate:  org.UpdateDate,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"login", "name", "type", "grouping", "created_date", "update_date",
			}),
		}).Create(row).Error; err != nil {
			return fmt.Errorf("failed to upsert organization %d: %w", org.ID, err)
		}
		return tx.First(out, "id = ?", org.ID).Error
	})
	if err != nil {
		s.Logger.Error(ctx, "Upsert of organization %q failed: %v", org.Login, err)
		return nil, err
	}
	return out, nil
}

// UpsertRepository persists the repository's scalar fields, fork
// provenance included.
func (s *Store) UpsertRepository(ctx context.Context, repo *model.Repository) (*model.Repository, error) {
	gdb, err := s.Db.Db()
	if err != nil {
		return nil, err
	}

	out := &model.Repository{}
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &model.Repository{
			ID:                   repo.ID,
			OrganizationID:       repo.OrganizationID,
			Name:                 repo.Name,
			Language:             repo.Language,
			License:              repo.License,
			Fork:                 repo.Fork,
			PushDate:             repo.PushDate,
			CreatedDate:          repo.CreatedDate,
			ForksCount:           repo.ForksCount,
			StargazersCount:      repo.StargazersCount,
			NetworkCount:         repo.NetworkCount,
			WatchersCount:        repo.WatchersCount,
			SourceGovernment:     repo.SourceGovernment,
			SourceCivic:          repo.SourceCivic,
			SourceOwnerID:        repo.SourceOwnerID,
			SourceOwnerLogin:     repo.SourceOwnerLogin,
			SourceRepositoryID:   repo.SourceRepositoryID,
			SourceRepositoryName: repo.SourceRepositoryName,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"organization_id", "name", "language", "license", "fork",
				"push_date", "created_date", "forks_count", "stargazers_count",
				"network_count", "watchers_count", "source_government",
				"source_civic", "source_owner_id", "source_owner_login",
				"source_repository_id", "source_repository_name",
			}),
		}).Create(row).Error; err != nil {
			return fmt.Errorf("failed to upsert repository %d: %w", repo.ID, err)
		}
		return tx.First(out, "id = ?", repo.ID).Error
	})
	if err != nil {
		s.Logger.Error(ctx, "Upsert of repository %q failed: %v", repo.Name, err)
		return nil, err
	}
	return out, nil
}

// UpsertPerson persists a member or contributor account.
func (s *Store) UpsertPerson(ctx context.Context, person *model.Person) (*model.Person, error) {
	gdb, err := s.Db.Db()
	if err != nil {
		return nil, err
	}

	out := &model.Person{}
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &model.Person{
			ID:          person.ID,
			Login:       person.Login,
			Name:        person.Name,
			CreatedDate: person.CreatedDate,
			UpdateDate:  person.UpdateDate,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"login", "name", "created_date", "update_date",
			}),
		}).Create(row).Error; err != nil {
			return fmt.Errorf("failed to upsert person %d: %w", person.ID, err)
		}
		return tx.First(out, "id = ?", person.ID).Error
	})
	if err != nil {
		s.Logger.Error(ctx, "Upsert of person %q failed: %v", person.Login, err)
		return nil, err
	}
	return out, nil
}

// ReplaceOrganizationRepositories points the organization's owned set at
// exactly the given repositories. Rows dropped from the set keep their own
// record, only the link is cleared.
func (s *Store) ReplaceOrganizationRepositories(ctx context.Context, org *model.Organization, repos []*model.Repository) error {
	return s.replace(ctx, &model.Organization{ID: org.ID}, "Repositories", repos)
}

// ReplaceOrganizationMembers replaces the organization's member set.
func (s *Store) ReplaceOrganizationMembers(ctx context.Context, org *model.Organization, members []*model.Person) error {
	return s.replace(ctx, &model.Organization{ID: org.ID}, "Members", members)
}

// ReplaceOrganizationContributors replaces the organization's aggregated
// contributor set.
func (s *Store) ReplaceOrganizationContributors(ctx context.Context, org *model.Organization, contributors []*model.Person) error {
	return s.replace(ctx, &model.Organization{ID: org.ID}, "Contributors", contributors)
}

// ReplaceRepositoryContributors replaces one repository's contributor set.
func (s *Store) ReplaceRepositoryContributors(ctx context.Context, repo *model.Repository, contributors []*model.Person) error {
	return s.replace(ctx, &model.Repository{ID: repo.ID}, "Contributors", contributors)
}

func (s *Store) replace(ctx context.Context, owner interface{}, association string, values interface{}) error {
	gdb, err := s.Db.Db()
	if err != nil {
		return err
	}
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(owner).Association(association).Replace(values)
	})
	if err != nil {
		s.Logger.Error(ctx, "Replacing %s association failed: %v", association, err)
		return fmt.Errorf("failed to replace %s association: %w", association, err)
	}
	return nil
}

// Progress reads the checkpoint. A store without a checkpoint row starts
// from the beginning of the list.
func (s *Store) Progress(ctx context.Context) (int, error) {
	gdb, err := s.Db.Db()
	if err != nil {
		return 0, err
	}
	p := &model.Progress{}
	err = gdb.WithContext(ctx).First(p, "id = ?", model.ProgressID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.Value, nil
}

// SetProgress persists the checkpoint.
func (s *Store) SetProgress(ctx context.Context, value int) error {
	gdb, err := s.Db.Db()
	if err != nil {
		return err
	}
	row := &model.Progress{ID: model.ProgressID, Value: value}
	err = gdb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to persist progress %d: %w", value, err)
	}
	return nil
}
