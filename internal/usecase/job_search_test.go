package usecase

import (
	"context"
	"testing"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"
	"job-service/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	store  *memory.Store
	cache  *memCache
	jobs   *Jobs
	search *JobSearch
	clock  *time.Time
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	f := &searchFixture{store: memory.New(), cache: newMemCache()}
	now := testNow
	f.clock = &now
	clock := Clock(func() time.Time { return *f.clock })
	catalog := NewSkillCatalog(f.store, f.cache, clock, nil)
	f.jobs = NewJobs(f.store, catalog, f.cache, nil, clock, nil)
	f.search = NewJobSearch(f.store, f.store, f.cache, clock, nil)
	return f
}

// publish creates and publishes a job, advancing the clock so posted_at
// ordering is deterministic.
func (f *searchFixture) publish(t *testing.T, in job.Content, skills ...string) job.Job {
	t.Helper()
	*f.clock = f.clock.Add(time.Minute)
	created, err := f.jobs.CreateJob(context.Background(), in, skills, nil)
	require.NoError(t, err)
	published, err := f.jobs.PublishJob(context.Background(), created.ID)
	require.NoError(t, err)
	return published
}

func content(company uuid.UUID, title string) job.Content {
	return job.Content{CompanyID: company, Title: title}
}

func ids(jobs []job.Job) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

func TestSearchJobs_SalaryOverlap(t *testing.T) {
	f := newSearchFixture(t)
	company := uuid.New()

	open := content(company, "Open ended")
	open.SalaryMin = intp(60000)
	low := content(company, "Underpaid")
	low.SalaryMax = intp(40000)
	inRange := content(company, "In range")
	inRange.SalaryMin, inRange.SalaryMax = intp(70000), intp(120000)

	a := f.publish(t, open)
	f.publish(t, low)
	c := f.publish(t, inRange)

	page, err := f.search.SearchJobs(context.Background(), SearchParams{MinSalary: intp(50000), MaxSalary: intp(100000)})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID, a.ID}, ids(page.Items))
	assert.Equal(t, int64(2), page.Total)
}

func TestSearchJobs_KeywordTakesPrecedence(t *testing.T) {
	f := newSearchFixture(t)
	company := uuid.New()

	remote := content(company, "Backend Engineer")
	remote.RemoteType = job.RemoteRemote
	onsite := content(company, "Platform team")
	onsite.Description = "Senior backend engineer wanted"
	onsite.RemoteType = job.RemoteOnsite

	a := f.publish(t, remote)
	b := f.publish(t, onsite)

	page, err := f.search.SearchJobs(context.Background(), SearchParams{
		Keyword:    "backend engineer",
		RemoteType: job.RemoteRemote,
		Location:   "nowhere",
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, ids(page.Items))

	page, err = f.search.SearchJobs(context.Background(), SearchParams{RemoteType: job.RemoteRemote})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids(page.Items))
}

func TestSearchJobs_OnlyActive(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()
	company := uuid.New()

	_, err := f.jobs.CreateJob(ctx, content(company, "Draft role"), nil, nil)
	require.NoError(t, err)
	closed := f.publish(t, content(company, "Closed role"))
	_, err = f.jobs.CloseJob(ctx, closed.ID)
	require.NoError(t, err)
	live := f.publish(t, content(company, "Live role"))

	page, err := f.search.SearchJobs(ctx, SearchParams{Keyword: "role"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{live.ID}, ids(page.Items))
}

func TestSearchJobs_Validation(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	_, err := f.search.SearchJobs(ctx, SearchParams{Page: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.search.SearchJobs(ctx, SearchParams{Size: 101})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.search.SearchJobs(ctx, SearchParams{MinSalary: intp(10), MaxSalary: intp(5)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearchJobs_CachedUntilMutation(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()
	company := uuid.New()

	f.publish(t, content(company, "Go developer"))

	p := SearchParams{Keyword: "developer"}
	first, err := f.search.SearchJobs(ctx, p)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	second, err := f.search.SearchJobs(ctx, SearchParams{Keyword: "  DEVELOPER "})
	require.NoError(t, err)
	assert.Equal(t, ids(first.Items), ids(second.Items))
	assert.Equal(t, 1, f.cache.hits)

	f.publish(t, content(company, "Rust developer"))
	third, err := f.search.SearchJobs(ctx, p)
	require.NoError(t, err)
	assert.Len(t, third.Items, 2)
}

func TestListActiveJobs_HidesPastExpiry(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()
	company := uuid.New()

	soon := content(company, "Expiring")
	exp := testNow.Add(10 * time.Minute)
	soon.ExpiresAt = &exp
	expiring := f.publish(t, soon)
	forever := f.publish(t, content(company, "Evergreen"))

	page, err := f.search.ListActiveJobs(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{forever.ID, expiring.ID}, ids(page.Items))
	assert.Equal(t, 20, page.Size)

	*f.clock = testNow.Add(time.Hour)
	page, err = f.search.ListActiveJobs(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{forever.ID}, ids(page.Items))
}

func TestListCompanyJobs_AllStatusesNewestFirst(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()
	company := uuid.New()

	first := f.publish(t, content(company, "First"))
	*f.clock = f.clock.Add(time.Minute)
	draft, err := f.jobs.CreateJob(ctx, content(company, "Second"), nil, nil)
	require.NoError(t, err)
	f.publish(t, content(uuid.New(), "Someone else"))

	page, err := f.search.ListCompanyJobs(ctx, company, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{draft.ID, first.ID}, ids(page.Items))

	_, err = f.search.ListCompanyJobs(ctx, uuid.Nil, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearchBySkills(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()
	company := uuid.New()

	goJob := f.publish(t, content(company, "Go"), "Go")
	rustJob := f.publish(t, content(company, "Rust"), "Rust", "gRPC")
	f.publish(t, content(company, "Java"), "Java")

	page, err := f.search.SearchBySkills(ctx, []string{"go", "GRPC", "Haskell"}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{rustJob.ID, goJob.ID}, ids(page.Items))

	page, err = f.search.SearchBySkills(ctx, []string{"Haskell"}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}
