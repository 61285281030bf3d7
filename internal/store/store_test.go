package store

import (
	"context"
	"testing"
	"time"

	"github.com/govgraph/gov-crawler/cfg"
	"github.com/govgraph/gov-crawler/internal/model"
	"github.com/govgraph/gov-crawler/pkg/db"
	"github.com/govgraph/gov-crawler/pkg/log"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	loader, err := cfg.NewMockLoader()
	require.NoError(t, err)
	config, err := loader.Load()
	require.NoError(t, err)

	logger, err := log.NewCslLogger()
	require.NoError(t, err)

	conn, err := db.NewSqliteInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	st, err := NewStore(config, logger, conn)
	require.NoError(t, err)
	require.NoError(t, st.Migrate())

	gdb, err := conn.Db()
	require.NoError(t, err)
	return st, gdb
}

func timePtr(t time.Time) *time.Time { return &t }

func TestUpsertOrganizationIdempotent(t *testing.T) {
	st, gdb := newTestStore(t)
	ctx := context.Background()

	org := &model.Organization{
		ID:       1,
		Login:    "acme",
		Name:     "Acme Corp",
		Type:     "government",
		Grouping: "U.S. Federal",
	}

	first, err := st.UpsertOrganization(ctx, org)
	require.NoError(t, err)
	second, err := st.UpsertOrganization(ctx, org)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Login, second.Login)
	require.Equal(t, first.Grouping, second.Grouping)

	var count int64
	require.NoError(t, gdb.Model(&model.Organization{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpsertPersonUpdatesInPlace(t *testing.T) {
	st, gdb := newTestStore(t)
	ctx := context.Background()

	_, err := st.UpsertPerson(ctx, &model.Person{ID: 7, Login: "octocat", Name: "Octo"})
	require.NoError(t, err)

	updated, err := st.UpsertPerson(ctx, &model.Person{ID: 7, Login: "octocat", Name: "Octo Cat"})
	require.NoError(t, err)
	require.Equal(t, "Octo Cat", updated.Name)

	var count int64
	require.NoError(t, gdb.Model(&model.Person{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpsertRepositoryKeepsProvenance(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	orgID := int64(1)
	ownerLogin := "upstream"
	repo := &model.Repository{
		ID:               10,
		OrganizationID:   &orgID,
		Name:             "tool",
		Fork:             true,
		SourceGovernment: true,
		SourceOwnerLogin: &ownerLogin,
		CreatedDate:      timePtr(time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)),
	}

	saved, err := st.UpsertRepository(ctx, repo)
	require.NoError(t, err)
	require.True(t, saved.Fork)
	require.True(t, saved.SourceGovernment)
	require.False(t, saved.SourceCivic)
	require.NotNil(t, saved.SourceOwnerLogin)
	require.Equal(t, "upstream", *saved.SourceOwnerLogin)
}

func TestReplaceMembersReplacesNotMerges(t *testing.T) {
	st, gdb := newTestStore(t)
	ctx := context.Background()

	org, err := st.UpsertOrganization(ctx, &model.Organization{ID: 1, Login: "acme"})
	require.NoError(t, err)

	a, err := st.UpsertPerson(ctx, &model.Person{ID: 100, Login: "alice"})
	require.NoError(t, err)
	b, err := st.UpsertPerson(ctx, &model.Person{ID: 101, Login: "bob"})
	require.NoError(t, err)
	c, err := st.UpsertPerson(ctx, &model.Person{ID: 102, Login: "carol"})
	require.NoError(t, err)

	require.NoError(t, st.ReplaceOrganizationMembers(ctx, org, []*model.Person{a, b}))
	require.NoError(t, st.ReplaceOrganizationMembers(ctx, org, []*model.Person{b, c}))

	var got model.Organization
	require.NoError(t, gdb.Preload("Members").First(&got, "id = ?", org.ID).Error)
	logins := make([]string, 0, len(got.Members))
	for _, m := range got.Members {
		logins = append(logins, m.Login)
	}
	require.ElementsMatch(t, []string{"bob", "carol"}, logins)

	// Dropped member keeps their row
	var count int64
	require.NoError(t, gdb.Model(&model.Person{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestReplaceRepositoriesPreservesRows(t *testing.T) {
	st, gdb := newTestStore(t)
	ctx := context.Background()

	org, err := st.UpsertOrganization(ctx, &model.Organization{ID: 1, Login: "acme"})
	require.NoError(t, err)

	r1, err := st.UpsertRepository(ctx, &model.Repository{ID: 10, OrganizationID: &org.ID, Name: "one"})
	require.NoError(t, err)
	r2, err := st.UpsertRepository(ctx, &model.Repository{ID: 11, OrganizationID: &org.ID, Name: "two"})
	require.NoError(t, err)

	require.NoError(t, st.ReplaceOrganizationRepositories(ctx, org, []*model.Repository{r1, r2}))
	require.NoError(t, st.ReplaceOrganizationRepositories(ctx, org, []*model.Repository{r1}))

	var got model.Organization
	require.NoError(t, gdb.Preload("Repositories").First(&got, "id = ?", org.ID).Error)
	require.Len(t, got.Repositories, 1)
	require.EqualValues(t, 10, got.Repositories[0].ID)

	// The unlinked repository row survives
	var orphan model.Repository
	require.NoError(t, gdb.First(&orphan, "id = ?", 11).Error)
	require.Nil(t, orphan.OrganizationID)
}

func TestRepositoryAndOrganizationContributorsIndependent(t *testing.T) {
	st, gdb := newTestStore(t)
	ctx := context.Background()

	org, err := st.UpsertOrganization(ctx, &model.Organization{ID: 1, Login: "acme"})
	require.NoError(t, err)
	repo, err := st.UpsertRepository(ctx, &model.Repository{ID: 10, OrganizationID: &org.ID, Name: "tool"})
	require.NoError(t, err)
	p, err := st.UpsertPerson(ctx, &model.Person{ID: 100, Login: "alice"})
	require.NoError(t, err)

	require.NoError(t, st.ReplaceRepositoryContributors(ctx, repo, []*model.Person{p}))

	var gotRepo model.Repository
	require.NoError(t, gdb.Preload("Contributors").First(&gotRepo, "id = ?", repo.ID).Error)
	require.Len(t, gotRepo.Contributors, 1)

	// Repository-level contribution does not imply organization-level
	var gotOrg model.Organization
	require.NoError(t, gdb.Preload("Contributors").First(&gotOrg, "id = ?", org.ID).Error)
	require.Empty(t, gotOrg.Contributors)
}

func TestProgressCheckpoint(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	// No row yet: start from the beginning
	value, err := st.Progress(ctx)
	require.NoError(t, err)
	require.Zero(t, value)

	require.NoError(t, st.SetProgress(ctx, 5))
	value, err = st.Progress(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, value)

	// Full-pass completion resets to zero
	require.NoError(t, st.SetProgress(ctx, 0))
	value, err = st.Progress(ctx)
	require.NoError(t, err)
	require.Zero(t, value)
}
