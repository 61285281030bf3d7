// Package crawler walks the ordered organization list and persists what it
// finds. One organization is fully processed before the next begins; all
// writes are idempotent upserts, so reprocessing an organization after a
// crash converges on the same rows.
package crawler

import (
	"context"
	"errors"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/githubapi"
	"github.com/govgraph/gov-crawler/internal/model"
	"github.com/govgraph/gov-crawler/internal/orglist"
	"github.com/govgraph/gov-crawler/internal/store"
	"github.com/govgraph/gov-crawler/pkg/log"
)

// OrgCrawler processes a single organization: metadata, repositories with
// fork provenance, members, and per-repository contributors.
type OrgCrawler struct {
	Logger log.Logger
	Config *cfg.Config
	Store  *store.Store
	Caller *githubapi.Caller
}

func NewOrgCrawler(logger log.Logger, config *cfg.Config, st *store.Store, caller *githubapi.Caller) (*OrgCrawler, error) {
	return &OrgCrawler{
		Logger: logger,
		Config: config,
		Store:  st,
		Caller: caller,
	}, nil
}

// Summary reports what one organization crawl touched.
type Summary struct {
	Organization *model.Organization
	Repositories int
	Members      int
	Contributors int
}

// Crawl runs the full per-organization sequence. A not-found organization
// propagates githubapi.ErrNotFound; the driver treats that as a skip.
func (c *OrgCrawler) Crawl(ctx context.Context, entry orglist.Entry, cls *orglist.Classification) (*Summary, error) {
	orgResp, err := c.Caller.Organization(ctx, entry.Login)
	if err != nil {
		return nil, err
	}

	org, err := c.Store.UpsertOrganization(ctx, &model.Organization{
		ID:          orgResp.ID,
		Login:       orgResp.Login,
		Name:        orgResp.Name,
		Type:        entry.Type,
		Grouping:    entry.Grouping,
		CreatedDate: orgResp.CreatedAt,
		UpdateDate:  orgResp.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}

	repos, err := c.crawlRepositories(ctx, org, cls)
	if err != nil {
		return nil, err
	}

	members, err := c.crawlMembers(ctx, org)
	if err != nil {
		return nil, err
	}

	contributors, err := c.crawlContributors(ctx, org, repos)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Organization: org,
		Repositories: len(repos),
		Members:      members,
		Contributors: contributors,
	}, nil
}

// crawlRepositories upserts every repository the organization owns and
// replaces the organization's owned set with the result. Fork provenance
// comes from the repository detail endpoint, which is the only response
// carrying the source chain.
func (c *OrgCrawler) crawlRepositories(ctx context.Context, org *model.Organization, cls *orglist.Classification) ([]*model.Repository, error) {
	apiRepos, err := c.Caller.OrganizationRepos(ctx, org.Login)
	if err != nil {
		return nil, err
	}

	repos := make([]*model.Repository, 0, len(apiRepos))
	for i := range apiRepos {
		row := repositoryRow(&apiRepos[i], org.ID)

		if apiRepos[i].Fork {
			detail, err := c.Caller.Repository(ctx, org.Login, apiRepos[i].Name)
			if err != nil && !errors.Is(err, githubapi.ErrNotFound) {
				return nil, err
			}
			if err == nil && detail.Source != nil {
				row.SourceRepositoryID = &detail.Source.ID
				row.SourceRepositoryName = &detail.Source.Name
				if detail.Source.Owner != nil {
					row.SourceOwnerID = &detail.Source.Owner.ID
					row.SourceOwnerLogin = &detail.Source.Owner.Login
				}
			}

			sourceLogin := ""
			if row.SourceOwnerLogin != nil {
				sourceLogin = *row.SourceOwnerLogin
			}
			row.SourceGovernment, row.SourceCivic = cls.Classify(sourceLogin)
		}

		saved, err := c.Store.UpsertRepository(ctx, row)
		if err != nil {
			return nil, err
		}
		repos = append(repos, saved)
	}

	if err := c.Store.ReplaceOrganizationRepositories(ctx, org, repos); err != nil {
		return nil, err
	}
	c.Logger.Info(ctx, "Organization %q: %d repositories", org.Login, len(repos))
	return repos, nil
}

// crawlMembers upserts every member and replaces the organization's
// member set.
func (c *OrgCrawler) crawlMembers(ctx context.Context, org *model.Organization) (int, error) {
	apiMembers, err := c.Caller.OrganizationMembers(ctx, org.Login)
	if err != nil {
		return 0, err
	}

	members := make([]*model.Person, 0, len(apiMembers))
	for i := range apiMembers {
		saved, err := c.Store.UpsertPerson(ctx, personRow(&apiMembers[i]))
		if err != nil {
			return 0, err
		}
		members = append(members, saved)
	}

	if err := c.Store.ReplaceOrganizationMembers(ctx, org, members); err != nil {
		return 0, err
	}
	c.Logger.Info(ctx, "Organization %q: %d members", org.Login, len(members))
	return len(members), nil
}

// crawlContributors fetches the contributor list of every non-fork
// repository, sets each repository's contributor set, and assigns the
// deduplicated union to the organization. Forks carry no contribution
// credit.
func (c *OrgCrawler) crawlContributors(ctx context.Context, org *model.Organization, repos []*model.Repository) (int, error) {
	seen := make(map[int64]bool)
	var union []*model.Person

	for _, repo := range repos {
		if repo.Fork {
			continue
		}

		apiContributors, err := c.Caller.RepoContributors(ctx, org.Login, repo.Name)
		if err != nil {
			return 0, err
		}

		contributors := make([]*model.Person, 0, len(apiContributors))
		for i := range apiContributors {
			saved, err := c.Store.UpsertPerson(ctx, personRow(&apiContributors[i]))
			if err != nil {
				return 0, err
			}
			contributors = append(contributors, saved)
			if !seen[saved.ID] {
				seen[saved.ID] = true
				union = append(union, saved)
			}
		}

		if err := c.Store.ReplaceRepositoryContributors(ctx, repo, contributors); err != nil {
			return 0, err
		}
	}

	if err := c.Store.ReplaceOrganizationContributors(ctx, org, union); err != nil {
		return 0, err
	}
	c.Logger.Info(ctx, "Organization %q: %d distinct contributors", org.Login, len(union))
	return len(union), nil
}

func repositoryRow(r *githubapi.RepositoryResponse, orgID int64) *model.Repository {
	row := &model.Repository{
		ID:              r.ID,
		OrganizationID:  &orgID,
		Name:            r.Name,
		Language:        r.Language,
		Fork:            r.Fork,
		PushDate:        r.PushedAt,
		CreatedDate:     r.CreatedAt,
		ForksCount:      r.ForksCount,
		StargazersCount: r.StargazersCount,
		NetworkCount:    r.NetworkCount,
		WatchersCount:   r.WatchersCount,
	}
	if r.License != nil {
		name := r.License.Name
		row.License = &name
	}
	return row
}

func personRow(p *githubapi.PersonResponse) *model.Person {
	return &model.Person{
		ID:          p.ID,
		Login:       p.Login,
		Name:        p.Name,
		CreatedDate: p.CreatedAt,
		UpdateDate:  p.UpdatedAt,
	}
}
