package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/githubapi"
	"github.com/govgraph/gov-crawler/internal/limiter"
	"github.com/govgraph/gov-crawler/internal/model"
	"github.com/govgraph/gov-crawler/internal/orglist"
	"github.com/govgraph/gov-crawler/internal/store"
	"github.com/govgraph/gov-crawler/pkg/db"
	"github.com/govgraph/gov-crawler/pkg/log"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixtureAPI serves canned JSON by path. A missing path answers 404, an
// empty body answers 204, a path in fail answers 500. hits counts requests
// per path.
type fixtureAPI struct {
	mu     sync.Mutex
	routes map[string]string
	fail   map[string]bool
	hits   map[string]int
}

func newFixtureAPI(routes map[string]string) *fixtureAPI {
	return &fixtureAPI{
		routes: routes,
		fail:   make(map[string]bool),
		hits:   make(map[string]int),
	}
}

func (f *fixtureAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	body, ok := f.routes[r.URL.Path]
	failed := f.fail[r.URL.Path]
	f.mu.Unlock()

	switch {
	case failed:
		http.Error(w, "internal error", http.StatusInternalServerError)
	case !ok:
		http.NotFound(w, r)
	case body == "":
		w.WriteHeader(http.StatusNoContent)
	default:
		fmt.Fprint(w, body)
	}
}

func (f *fixtureAPI) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newTestCrawler(t *testing.T, api *fixtureAPI) (*OrgCrawler, *store.Store, *gorm.DB, *cfg.Config) {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	loader, err := cfg.NewMockLoader()
	require.NoError(t, err)
	config, err := loader.Load()
	require.NoError(t, err)
	config.GithubApi.ApiUrl = server.URL
	config.GithubApi.RequestsPerSecond = 100

	logger, err := log.NewCslLogger()
	require.NoError(t, err)

	conn, err := db.NewSqliteInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	st, err := store.NewStore(config, logger, conn)
	require.NoError(t, err)
	require.NoError(t, st.Migrate())

	governor := limiter.NewGovernor(logger, config.GithubApi.RateLimitBuffer)
	caller := githubapi.NewCaller(logger, config, governor)
	crawler, err := NewOrgCrawler(logger, config, st, caller)
	require.NoError(t, err)

	gdb, err := conn.Db()
	require.NoError(t, err)
	return crawler, st, gdb, config
}

func classification(government, civic []string) *orglist.Classification {
	cls := &orglist.Classification{
		Government: make(map[string]bool),
		Civic:      make(map[string]bool),
	}
	for _, l := range government {
		cls.Government[l] = true
	}
	for _, l := range civic {
		cls.Civic[l] = true
	}
	return cls
}

// acmeRoutes is the standard fixture: one organization owning a fork of a
// vanished origin and one regular repository.
func acmeRoutes() map[string]string {
	return map[string]string{
		"/orgs/acme": `{"id": 1, "login": "acme", "name": "Acme Agency"}`,
		"/orgs/acme/repos": `[
			{"id": 10, "name": "tool", "fork": true, "language": "Go"},
			{"id": 11, "name": "lib", "fork": false, "language": "Python"}
		]`,
		"/repos/acme/tool": `{"id": 10, "name": "tool", "fork": true}`,
		"/orgs/acme/members": `[
			{"id": 100, "login": "alice", "name": "Alice"}
		]`,
		"/repos/acme/lib/contributors": `[
			{"id": 100, "login": "alice"},
			{"id": 101, "login": "bob"}
		]`,
	}
}

func acmeEntry() orglist.Entry {
	return orglist.Entry{Login: "acme", Grouping: "U.S. Federal", Type: orglist.TypeGovernment}
}

func TestCrawlPersistsOrganization(t *testing.T) {
	crawler, _, gdb, _ := newTestCrawler(t, newFixtureAPI(acmeRoutes()))

	summary, err := crawler.Crawl(context.Background(), acmeEntry(), classification([]string{"acme"}, nil))
	require.NoError(t, err)
	require.Equal(t, 2, summary.Repositories)
	require.Equal(t, 1, summary.Members)
	require.Equal(t, 2, summary.Contributors)

	var org model.Organization
	require.NoError(t, gdb.First(&org, "id = ?", 1).Error)
	require.Equal(t, "acme", org.Login)
	require.Equal(t, "government", org.Type)
	require.Equal(t, "U.S. Federal", org.Grouping)
}

func TestCrawlForkOfVanishedOriginIsGovernment(t *testing.T) {
	crawler, _, gdb, _ := newTestCrawler(t, newFixtureAPI(acmeRoutes()))

	_, err := crawler.Crawl(context.Background(), acmeEntry(), classification([]string{"acme"}, nil))
	require.NoError(t, err)

	// The detail record for the fork carried no source chain, so the
	// origin is unresolvable and treated as government.
	var fork model.Repository
	require.NoError(t, gdb.First(&fork, "id = ?", 10).Error)
	require.True(t, fork.Fork)
	require.True(t, fork.SourceGovernment)
	require.False(t, fork.SourceCivic)
	require.Nil(t, fork.SourceOwnerLogin)
}

func TestCrawlForkClassification(t *testing.T) {
	routes := acmeRoutes()
	routes["/repos/acme/tool"] = `{"id": 10, "name": "tool", "fork": true,
		"source": {"id": 90, "name": "tool", "owner": {"id": 9, "login": "CivicOrg"}}}`
	crawler, _, gdb, _ := newTestCrawler(t, newFixtureAPI(routes))

	_, err := crawler.Crawl(context.Background(), acmeEntry(), classification([]string{"acme"}, []string{"civicorg"}))
	require.NoError(t, err)

	var fork model.Repository
	require.NoError(t, gdb.First(&fork, "id = ?", 10).Error)
	require.False(t, fork.SourceGovernment)
	require.True(t, fork.SourceCivic)
	require.Equal(t, "CivicOrg", *fork.SourceOwnerLogin)
	require.EqualValues(t, 90, *fork.SourceRepositoryID)
}

func TestCrawlNonForkCarriesNoProvenance(t *testing.T) {
	crawler, _, gdb, _ := newTestCrawler(t, newFixtureAPI(acmeRoutes()))

	_, err := crawler.Crawl(context.Background(), acmeEntry(), classification([]string{"acme"}, nil))
	require.NoError(t, err)

	var lib model.Repository
	require.NoError(t, gdb.First(&lib, "id = ?", 11).Error)
	require.False(t, lib.Fork)
	require.False(t, lib.SourceGovernment)
	require.False(t, lib.SourceCivic)
}

func TestCrawlForkOfUnknownOwnerIsNeither(t *testing.T) {
	routes := acmeRoutes()
	routes["/repos/acme/tool"] = `{"id": 10, "name": "tool", "fork": true,
		"source": {"id": 90, "name": "tool", "owner": {"id": 9, "login": "randomcorp"}}}`
	crawler, _, gdb, _ := newTestCrawler(t, newFixtureAPI(routes))

	_, err := crawler.Crawl(context.Background(), acmeEntry(), classification([]string{"acme"}, nil))
	require.NoError(t, err)

	var fork model.Repository
	require.NoError(t, gdb.First(&fork, "id = ?", 10).Error)
	require.False(t, fork.SourceGovernment)
	require.False(t, fork.SourceCivic)
}

func TestCrawlForksCarryNoContributors(t *testing.T) {
	api := newFixtureAPI(acmeRoutes())
	crawler, _, gdb, _ := newTestCrawler(t, api)

	_, err := crawler.Crawl(context.Background(), acmeEntry(), classification([]string{"acme"}, nil))
	require.NoError(t, err)

	// The fork's contributor endpoint was never called.
	require.Zero(t, api.hitCount("/repos/acme/tool/contributors"))

	var count int64
	require.NoError(t, gdb.Table("person_repository_contributor").
		Where("repository_id = ?", 10).Count(&count).Error)
	require.Zero(t, count)

	// The organization union holds only the non-fork repository's
	// contributors.
	require.NoError(t, gdb.Table("person_organization_contributor").
		Where("organization_id = ?", 1).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestCrawlIsIdempotent(t *testing.T) {
	crawler, _, gdb, _ := newTestCrawler(t, newFixtureAPI(acmeRoutes()))
	cls := classification([]string{"acme"}, nil)

	first, err := crawler.Crawl(context.Background(), acmeEntry(), cls)
	require.NoError(t, err)
	second, err := crawler.Crawl(context.Background(), acmeEntry(), cls)
	require.NoError(t, err)
	require.Equal(t, first.Repositories, second.Repositories)
	require.Equal(t, first.Members, second.Members)
	require.Equal(t, first.Contributors, second.Contributors)

	counts := map[string]int64{}
	for _, table := range []string{
		"organization", "repository", "person",
		"person_organization_member",
		"person_organization_contributor",
		"person_repository_contributor",
	} {
		var n int64
		require.NoError(t, gdb.Table(table).Count(&n).Error)
		counts[table] = n
	}
	require.EqualValues(t, 1, counts["organization"])
	require.EqualValues(t, 2, counts["repository"])
	require.EqualValues(t, 2, counts["person"])
	require.EqualValues(t, 1, counts["person_organization_member"])
	require.EqualValues(t, 2, counts["person_organization_contributor"])
	require.EqualValues(t, 2, counts["person_repository_contributor"])
}

func TestCrawlRemovedRepositoryKeepsRow(t *testing.T) {
	routes := acmeRoutes()
	api := newFixtureAPI(routes)
	crawler, _, gdb, _ := newTestCrawler(t, api)
	cls := classification([]string{"acme"}, nil)

	_, err := crawler.Crawl(context.Background(), acmeEntry(), cls)
	require.NoError(t, err)

	// The fork disappears upstream between passes.
	api.mu.Lock()
	api.routes["/orgs/acme/repos"] = `[{"id": 11, "name": "lib", "fork": false, "language": "Python"}]`
	api.mu.Unlock()

	_, err = crawler.Crawl(context.Background(), acmeEntry(), cls)
	require.NoError(t, err)

	// The row survives for the graph exports but is no longer owned.
	var orphan model.Repository
	require.NoError(t, gdb.First(&orphan, "id = ?", 10).Error)
	require.Nil(t, orphan.OrganizationID)
}

// Driver tests exercise the checkpointed pass over the crawl list.

func writeLists(t *testing.T, config *cfg.Config, government, civic string) {
	t.Helper()
	dir := t.TempDir()
	govPath := filepath.Join(dir, "governments.yml")
	civicPath := filepath.Join(dir, "civic_hackers.yml")
	require.NoError(t, os.WriteFile(govPath, []byte(government), 0o644))
	require.NoError(t, os.WriteFile(civicPath, []byte(civic), 0o644))
	config.Crawler.GovernmentList = govPath
	config.Crawler.CivicList = civicPath
}

func newTestDriver(t *testing.T, api *fixtureAPI, government, civic string) (*Driver, *store.Store, *gorm.DB) {
	t.Helper()

	crawler, st, gdb, config := newTestCrawler(t, api)
	writeLists(t, config, government, civic)

	logger, err := log.NewCslLogger()
	require.NoError(t, err)
	driver, err := NewDriver(logger, config, st, crawler, nil)
	require.NoError(t, err)
	return driver, st, gdb
}

func TestDriverFullPassResetsCheckpoint(t *testing.T) {
	driver, st, gdb := newTestDriver(t, newFixtureAPI(acmeRoutes()),
		"U.S. Federal:\n  - acme\n", "")
	ctx := context.Background()

	require.NoError(t, driver.Run(ctx))

	progress, err := st.Progress(ctx)
	require.NoError(t, err)
	require.Zero(t, progress)

	var count int64
	require.NoError(t, gdb.Model(&model.Organization{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDriverResumesFromCheckpoint(t *testing.T) {
	api := newFixtureAPI(acmeRoutes())
	driver, st, _ := newTestDriver(t, api,
		"U.S. Federal:\n  - skipped-org\n  - acme\n", "")
	ctx := context.Background()

	// A previous pass finished index 0; this run must start at index 1.
	require.NoError(t, st.SetProgress(ctx, 1))
	require.NoError(t, driver.Run(ctx))

	require.Zero(t, api.hitCount("/orgs/skipped-org"))
	require.Equal(t, 1, api.hitCount("/orgs/acme"))
}

func TestDriverSkipsMissingOrganization(t *testing.T) {
	driver, st, gdb := newTestDriver(t, newFixtureAPI(acmeRoutes()),
		"U.S. Federal:\n  - ghost\n  - acme\n", "")
	ctx := context.Background()

	require.NoError(t, driver.Run(ctx))

	// ghost was skipped, acme still crawled, pass completed.
	var count int64
	require.NoError(t, gdb.Model(&model.Organization{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	progress, err := st.Progress(ctx)
	require.NoError(t, err)
	require.Zero(t, progress)
}

func TestDriverHaltsAndKeepsCheckpoint(t *testing.T) {
	api := newFixtureAPI(acmeRoutes())
	api.fail["/orgs/broken"] = true
	api.routes["/orgs/broken"] = `{}`
	driver, st, gdb := newTestDriver(t, api,
		"U.S. Federal:\n  - acme\n  - broken\n", "")
	ctx := context.Background()

	err := driver.Run(ctx)
	require.Error(t, err)

	// acme finished before the halt, so a restart resumes at index 1.
	progress, perr := st.Progress(ctx)
	require.NoError(t, perr)
	require.Equal(t, 1, progress)

	var org model.Organization
	require.NoError(t, gdb.First(&org, "id = ?", 1).Error)
	require.Equal(t, "acme", org.Login)
}

func TestDriverCrawlsCivicListAfterGovernment(t *testing.T) {
	routes := acmeRoutes()
	routes["/orgs/civichack"] = `{"id": 2, "login": "civichack", "name": "Civic Hackers"}`
	routes["/orgs/civichack/repos"] = `[]`
	routes["/orgs/civichack/members"] = `[]`
	driver, _, gdb := newTestDriver(t, newFixtureAPI(routes),
		"U.S. Federal:\n  - acme\n", "Community:\n  - civichack\n")

	require.NoError(t, driver.Run(context.Background()))

	var civic model.Organization
	require.NoError(t, gdb.First(&civic, "id = ?", 2).Error)
	require.Equal(t, "civic", civic.Type)
	require.Equal(t, "Community", civic.Grouping)
}
