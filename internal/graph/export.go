// Package graph materializes relationship exports from the store and
// derives graph files from them. The export documents are flat edge
// records under a "results" key; the builder consumes those documents
// without touching the store again.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/pkg/db"
	"github.com/govgraph/gov-crawler/pkg/log"
)

// EdgeRow is one undirected organization pair weighted by the number of
// people the two organizations share.
type EdgeRow struct {
	Login1    string `json:"login_1" gorm:"column:login_1"`
	Grouping1 string `json:"grouping_1" gorm:"column:grouping_1"`
	Login2    string `json:"login_2" gorm:"column:login_2"`
	Grouping2 string `json:"grouping_2" gorm:"column:grouping_2"`
	Count     int    `json:"count" gorm:"column:edge_count"`
}

// ForkRow is one directed fork relation between a source organization and
// the organization that forked from it.
type ForkRow struct {
	ForkedFrom         string `json:"forked_from" gorm:"column:forked_from"`
	ForkedFromGrouping string `json:"forked_from_grouping" gorm:"column:forked_from_grouping"`
	ForkedBy           string `json:"forked_by" gorm:"column:forked_by"`
	ForkedByGrouping   string `json:"forked_by_grouping" gorm:"column:forked_by_grouping"`
}

// Exporter queries the association tables and writes the relationship
// export documents.
type Exporter struct {
	Config *cfg.Config
	Logger log.Logger
	Db     db.Connector
}

func NewExporter(config *cfg.Config, logger log.Logger, conn db.Connector) (*Exporter, error) {
	return &Exporter{
		Config: config,
		Logger: logger,
		Db:     conn,
	}, nil
}

// sharedPersonQuery counts, for every organization pair, the people both
// organizations carry in the given association table.
const sharedPersonQuery = `
SELECT o1.login AS login_1, o1.grouping AS grouping_1,
       o2.login AS login_2, o2.grouping AS grouping_2,
       COUNT(*) AS edge_count
FROM %s a
JOIN %s b ON a.person_id = b.person_id AND a.organization_id < b.organization_id
JOIN organization o1 ON o1.id = a.organization_id
JOIN organization o2 ON o2.id = b.organization_id
GROUP BY o1.id, o1.login, o1.grouping, o2.id, o2.login, o2.grouping`

const forkQuery = `
SELECT s.login AS forked_from, s.grouping AS forked_from_grouping,
       o.login AS forked_by, o.grouping AS forked_by_grouping
FROM repository r
JOIN organization o ON o.id = r.organization_id
JOIN organization s ON s.id = r.source_owner_id
WHERE r.fork = ? AND r.source_government = ?`

// Export writes member.json, contributor.json and fork_government.json
// into dir.
func (e *Exporter) Export(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	members, err := e.sharedPeople(ctx, "person_organization_member")
	if err != nil {
		return err
	}
	if err := writeResults(filepath.Join(dir, "member.json"), members); err != nil {
		return err
	}

	contributors, err := e.sharedPeople(ctx, "person_organization_contributor")
	if err != nil {
		return err
	}
	if err := writeResults(filepath.Join(dir, "contributor.json"), contributors); err != nil {
		return err
	}

	forks, err := e.governmentForks(ctx)
	if err != nil {
		return err
	}
	if err := writeResults(filepath.Join(dir, "fork_government.json"), forks); err != nil {
		return err
	}

	e.Logger.Info(ctx, "Exported %d member edges, %d contributor edges, %d fork edges to %s",
		len(members), len(contributors), len(forks), dir)
	return nil
}

func (e *Exporter) sharedPeople(ctx context.Context, table string) ([]EdgeRow, error) {
	gdb, err := e.Db.Db()
	if err != nil {
		return nil, err
	}
	rows := make([]EdgeRow, 0)
	query := fmt.Sprintf(sharedPersonQuery, table, table)
	if err := gdb.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s edges: %w", table, err)
	}
	return rows, nil
}

func (e *Exporter) governmentForks(ctx context.Context) ([]ForkRow, error) {
	gdb, err := e.Db.Db()
	if err != nil {
		return nil, err
	}
	rows := make([]ForkRow, 0)
	if err := gdb.WithContext(ctx).Raw(forkQuery, true, true).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query fork edges: %w", err)
	}
	return rows, nil
}

func writeResults(path string, results interface{}) error {
	doc := struct {
		Results interface{} `json:"results"`
	}{Results: results}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
