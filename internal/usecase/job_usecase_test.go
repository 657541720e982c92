package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"
	"job-service/internal/infrastructure/events"
	"job-service/internal/repository"
	"job-service/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobsFixture struct {
	store *memory.Store
	cache *memCache
	pub   *recordingPublisher
	uc    *Jobs
}

func newJobsFixture(t *testing.T) jobsFixture {
	t.Helper()
	store := memory.New()
	cache := newMemCache()
	pub := &recordingPublisher{}
	catalog := NewSkillCatalog(store, cache, fixedClock(testNow), nil)
	return jobsFixture{
		store: store,
		cache: cache,
		pub:   pub,
		uc:    NewJobs(store, catalog, cache, pub, fixedClock(testNow), nil),
	}
}

func backendContent(company uuid.UUID) job.Content {
	return job.Content{
		CompanyID:   company,
		Title:       "Backend Engineer",
		Description: "Build services",
		JobType:     job.TypeContract,
	}
}

func TestJobs_Scenario(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateJob(ctx, backendContent(uuid.New()), []string{"Rust", "gRPC"}, nil)
	require.NoError(t, err)

	got, err := f.uc.GetJob(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, job.StatusDraft, got.Status)
	assert.Len(t, got.RequiredSkills(), 2)
	assert.Empty(t, got.PreferredSkills())
	assert.Zero(t, got.ViewsCount)

	got, err = f.uc.GetJob(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewsCount)

	published, err := f.uc.PublishJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusActive, published.Status)
	require.NotNil(t, published.PostedAt)
	assert.Equal(t, testNow, *published.PostedAt)

	assert.Equal(t, []events.Type{events.JobPublished}, f.pub.types())
}

func TestCreateJob_ValidationBeforePersistence(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	in := backendContent(uuid.New())
	in.SalaryMin, in.SalaryMax = intp(90000), intp(10000)
	_, err := f.uc.CreateJob(ctx, in, []string{"Go"}, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	tags, err := f.store.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags, "no skill tag should be created for an invalid job")
}

func TestCreateJob_NormalizesExpiry(t *testing.T) {
	f := newJobsFixture(t)
	loc := time.FixedZone("WIB", 7*3600)
	exp := time.Date(2026, 4, 1, 9, 30, 0, 123456789, loc)

	in := backendContent(uuid.New())
	in.ExpiresAt = &exp
	created, err := f.uc.CreateJob(context.Background(), in, nil, nil)
	require.NoError(t, err)

	require.NotNil(t, created.ExpiresAt)
	assert.Equal(t, time.UTC, created.ExpiresAt.Location())
	assert.True(t, created.ExpiresAt.Equal(exp.Truncate(time.Microsecond)))
	assert.Equal(t, testNow, created.CreatedAt)
}

func TestUpdateJob_ReplacesSkillSet(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateJob(ctx, backendContent(uuid.New()), []string{"Java", "Spring"}, []string{"Kafka"})
	require.NoError(t, err)
	require.Len(t, created.Skills, 3)

	in := backendContent(created.CompanyID)
	in.Title = "Go Engineer"
	updated, err := f.uc.UpdateJob(ctx, created.ID, in, []string{"Go"}, nil)
	require.NoError(t, err)

	require.Len(t, updated.Skills, 1)
	assert.Equal(t, "Go", updated.Skills[0].SkillName)
	assert.True(t, updated.Skills[0].IsRequired)
	assert.Equal(t, "Go Engineer", updated.Title)
	assert.Equal(t, job.StatusDraft, updated.Status)
}

func TestUpdateJob_ClearsExpiry(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	in := backendContent(uuid.New())
	exp := testNow.Add(48 * time.Hour)
	in.ExpiresAt = &exp
	created, err := f.uc.CreateJob(ctx, in, nil, nil)
	require.NoError(t, err)

	in.ExpiresAt = nil
	updated, err := f.uc.UpdateJob(ctx, created.ID, in, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.ExpiresAt)
}

func TestUpdateJob_NotFound(t *testing.T) {
	f := newJobsFixture(t)
	_, err := f.uc.UpdateJob(context.Background(), uuid.New(), backendContent(uuid.New()), nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLifecycle_ThroughUsecase(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateJob(ctx, backendContent(uuid.New()), nil, nil)
	require.NoError(t, err)

	_, err = f.uc.PauseJob(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	first, err := f.uc.PublishJob(ctx, created.ID)
	require.NoError(t, err)
	_, err = f.uc.PauseJob(ctx, created.ID)
	require.NoError(t, err)
	again, err := f.uc.PublishJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.PostedAt, *again.PostedAt)

	closed, err := f.uc.CloseJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusClosed, closed.Status)

	closed, err = f.uc.CloseJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusClosed, closed.Status)

	_, err = f.uc.PublishJob(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	assert.Equal(t, []events.Type{events.JobPublished, events.JobPaused, events.JobPublished, events.JobClosed}, f.pub.types())
}

func TestTransitions_NotFound(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()
	id := uuid.New()

	for name, fn := range map[string]func(context.Context, uuid.UUID) (job.Job, error){
		"publish": f.uc.PublishJob,
		"pause":   f.uc.PauseJob,
		"close":   f.uc.CloseJob,
	} {
		_, err := fn(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound, name)
	}
	_, err := f.uc.GetJob(ctx, id, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// racingJobRepo closes the job behind the caller's back the first time a
// transition is attempted.
type racingJobRepo struct {
	*memory.Store
	once sync.Once
}

func (r *racingJobRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to job.Status, postedAt *time.Time, at time.Time) (bool, error) {
	r.once.Do(func() {
		_, _ = r.Store.TransitionStatus(ctx, id, from, job.StatusClosed, nil, at)
	})
	return r.Store.TransitionStatus(ctx, id, from, to, postedAt, at)
}

func TestPublish_LosesRaceToClose(t *testing.T) {
	store := memory.New()
	repo := &racingJobRepo{Store: store}
	uc := NewJobs(repo, NewSkillCatalog(store, nil, fixedClock(testNow), nil), nil, nil, fixedClock(testNow), nil)
	ctx := context.Background()

	created, err := uc.CreateJob(ctx, backendContent(uuid.New()), nil, nil)
	require.NoError(t, err)

	_, err = uc.PublishJob(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	got, err := uc.GetJob(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, job.StatusClosed, got.Status)
	assert.Nil(t, got.PostedAt)
}

// deletingJobRepo removes the job right after the caller has looked it up.
type deletingJobRepo struct {
	*memory.Store
}

func (r deletingJobRepo) FindByID(ctx context.Context, id uuid.UUID) (job.Job, error) {
	j, err := r.Store.FindByID(ctx, id)
	if err == nil {
		_, _ = r.Store.DeleteByID(ctx, id)
	}
	return j, err
}

func TestUpdateJob_DeletedMidwayIsNotRecreated(t *testing.T) {
	store := memory.New()
	uc := NewJobs(deletingJobRepo{store}, NewSkillCatalog(store, nil, fixedClock(testNow), nil), nil, nil, fixedClock(testNow), nil)
	ctx := context.Background()

	company := uuid.New()
	created, err := uc.CreateJob(ctx, backendContent(company), []string{"Go"}, nil)
	require.NoError(t, err)

	edited := backendContent(company)
	edited.Title = "Platform Engineer"
	_, err = uc.UpdateJob(ctx, created.ID, edited, []string{"Rust"}, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = store.FindByIDWithSkills(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	n, err := store.CountByCompany(ctx, company)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type stuckJobRepo struct {
	*memory.Store
}

func (stuckJobRepo) TransitionStatus(context.Context, uuid.UUID, job.Status, job.Status, *time.Time, time.Time) (bool, error) {
	return false, nil
}

func TestTransition_GivesUpAfterRetries(t *testing.T) {
	store := memory.New()
	uc := NewJobs(stuckJobRepo{store}, NewSkillCatalog(store, nil, fixedClock(testNow), nil), nil, nil, fixedClock(testNow), nil)
	ctx := context.Background()

	created, err := uc.CreateJob(ctx, backendContent(uuid.New()), nil, nil)
	require.NoError(t, err)

	_, err = uc.PublishJob(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestIncrementApplyCount_Concurrent(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateJob(ctx, backendContent(uuid.New()), nil, nil)
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.uc.IncrementApplyCount(ctx, created.ID); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.uc.GetJob(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.AppliesCount)
	assert.Equal(t, created.UpdatedAt, got.UpdatedAt)

	assert.NoError(t, f.uc.IncrementApplyCount(ctx, uuid.New()))
}

func TestDeleteJob_Idempotent(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateJob(ctx, backendContent(uuid.New()), []string{"Go"}, nil)
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteJob(ctx, created.ID))
	require.NoError(t, f.uc.DeleteJob(ctx, created.ID))

	_, err = f.uc.GetJob(ctx, created.ID, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	tag, err := f.store.FindByNameIgnoreCase(ctx, "go")
	require.NoError(t, err, "skill tags outlive their jobs")
	assert.Equal(t, "Go", tag.Name)

	assert.Equal(t, []events.Type{events.JobDeleted}, f.pub.types())
}

func TestCountCompanyJobs(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()
	company := uuid.New()

	a, err := f.uc.CreateJob(ctx, backendContent(company), nil, nil)
	require.NoError(t, err)
	_, err = f.uc.CreateJob(ctx, backendContent(company), nil, nil)
	require.NoError(t, err)
	_, err = f.uc.CreateJob(ctx, backendContent(uuid.New()), nil, nil)
	require.NoError(t, err)
	_, err = f.uc.PublishJob(ctx, a.ID)
	require.NoError(t, err)

	total, err := f.uc.CountCompanyJobs(ctx, company, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	active := job.StatusActive
	n, err := f.uc.CountCompanyJobs(ctx, company, &active)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.uc.CountCompanyJobs(ctx, uuid.Nil, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()

	company := uuid.New()
	key := CompanyJobsCacheKey(company, 0, repository.DefaultPageSize)
	require.NoError(t, f.cache.SetJSON(ctx, key, repository.JobPage{}, 0))
	_, err := f.uc.CreateJob(ctx, backendContent(company), nil, nil)
	require.NoError(t, err)

	var page repository.JobPage
	hit, err := f.cache.GetJSON(ctx, key, &page)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, f.cache.invalidated)
}

type brokenJobRepo struct {
	*memory.Store
}

func (brokenJobRepo) IncrementApplyCount(context.Context, uuid.UUID) (bool, error) {
	return false, apperr.Transient("increment applies", errors.New("connection refused"))
}

func TestIncrementApplyCount_SurfacesStoreFailure(t *testing.T) {
	store := memory.New()
	uc := NewJobs(brokenJobRepo{store}, NewSkillCatalog(store, nil, nil, nil), nil, nil, nil, nil)
	err := uc.IncrementApplyCount(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
