package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/githubapi"
	"github.com/govgraph/gov-crawler/internal/model"
	"github.com/govgraph/gov-crawler/internal/orglist"
	"github.com/govgraph/gov-crawler/internal/store"
	"github.com/govgraph/gov-crawler/pkg/kafka"
	"github.com/govgraph/gov-crawler/pkg/log"
)

// Driver iterates the crawl list from the persisted checkpoint. A
// not-found organization is logged and skipped; any other failure halts
// the pass with the checkpoint at the last completed organization, so a
// restart resumes exactly there.
type Driver struct {
	Logger   log.Logger
	Config   *cfg.Config
	Store    *store.Store
	Crawler  *OrgCrawler
	Producer *kafka.Producer
}

// NewDriver wires the driver. producer may be nil when no event broker is
// configured.
func NewDriver(logger log.Logger, config *cfg.Config, st *store.Store, crawler *OrgCrawler, producer *kafka.Producer) (*Driver, error) {
	return &Driver{
		Logger:   logger,
		Config:   config,
		Store:    st,
		Crawler:  crawler,
		Producer: producer,
	}, nil
}

// Run executes one pass over the crawl list.
func (d *Driver) Run(ctx context.Context) error {
	entries, cls, err := orglist.Load(d.Config.Crawler.GovernmentList, d.Config.Crawler.CivicList)
	if err != nil {
		return err
	}

	start, err := d.Store.Progress(ctx)
	if err != nil {
		return err
	}
	if start > len(entries) {
		start = len(entries)
	}
	d.Logger.Info(ctx, "Crawling %d organizations, resuming at index %d", len(entries), start)

	for i := start; i < len(entries); i++ {
		entry := entries[i]
		d.Logger.Info(ctx, "%d %s %s", i, entry.Login, entry.Grouping)

		summary, err := d.Crawler.Crawl(ctx, entry, cls)
		switch {
		case errors.Is(err, githubapi.ErrNotFound):
			// Deleted or renamed upstream since the list was built. Not a
			// failure; the checkpoint still advances.
			d.Logger.Warn(ctx, "Organization %q not found upstream, skipped", entry.Login)
			d.publish(ctx, model.CrawlEvent{
				Index:    i,
				Login:    entry.Login,
				Grouping: entry.Grouping,
				Skipped:  true,
			})
		case err != nil:
			return fmt.Errorf("crawl halted at index %d (%s): %w", i, entry.Login, err)
		default:
			d.publish(ctx, model.CrawlEvent{
				Index:          i,
				OrganizationID: summary.Organization.ID,
				Login:          entry.Login,
				Grouping:       entry.Grouping,
				Repositories:   summary.Repositories,
				Members:        summary.Members,
				Contributors:   summary.Contributors,
			})
		}

		if err := d.Store.SetProgress(ctx, i+1); err != nil {
			return err
		}
	}

	// Full pass complete: the next run starts over.
	d.Logger.Info(ctx, "Pass complete, resetting checkpoint")
	return d.Store.SetProgress(ctx, 0)
}

func (d *Driver) publish(ctx context.Context, event model.CrawlEvent) {
	if d.Producer == nil {
		return
	}
	if err := d.Producer.Publish(ctx, event.Login, event); err != nil {
		d.Logger.Warn(ctx, "Failed to publish crawl event for %q: %v", event.Login, err)
	}
}
