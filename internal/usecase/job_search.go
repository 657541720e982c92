package usecase

import (
	"context"
	"strings"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"
	"job-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SearchParams drives SearchJobs. A non-blank Keyword switches to keyword
// mode and every other filter is ignored.
type SearchParams struct {
	Keyword         string
	JobType         job.Type
	ExperienceLevel job.ExperienceLevel
	RemoteType      job.RemoteType
	Location        string
	MinSalary       *int
	MaxSalary       *int
	Page            int
	Size            int
}

type JobSearchUsecase interface {
	SearchJobs(ctx context.Context, p SearchParams) (repository.JobPage, error)
	SearchBySkills(ctx context.Context, skillNames []string, page, size int) (repository.JobPage, error)
	ListActiveJobs(ctx context.Context, page, size int) (repository.JobPage, error)
	ListCompanyJobs(ctx context.Context, companyID uuid.UUID, page, size int) (repository.JobPage, error)
}

type JobSearch struct {
	jobs   repository.JobRepository
	tags   repository.SkillTagRepository
	cache  SearchCache
	clock  Clock
	logger *zap.Logger
}

func NewJobSearch(jobs repository.JobRepository, tags repository.SkillTagRepository, cache SearchCache, clock Clock, logger *zap.Logger) *JobSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobSearch{jobs: jobs, tags: tags, cache: cache, clock: clock, logger: logger.Named("search")}
}

func (u *JobSearch) SearchJobs(ctx context.Context, p SearchParams) (repository.JobPage, error) {
	pr, err := pageRequest(p.Page, p.Size, repository.SortPostedAt)
	if err != nil {
		return repository.JobPage{}, err
	}

	f := repository.JobFilter{Status: job.StatusActive}
	if kw := strings.TrimSpace(p.Keyword); kw != "" {
		f.Keyword = kw
	} else {
		if err := validateSalaryRange(p.MinSalary, p.MaxSalary); err != nil {
			return repository.JobPage{}, err
		}
		f.JobType = p.JobType
		f.ExperienceLevel = p.ExperienceLevel
		f.RemoteType = p.RemoteType
		f.Location = strings.TrimSpace(p.Location)
		f.MinSalary = p.MinSalary
		f.MaxSalary = p.MaxSalary
	}

	return u.cachedPage(ctx, JobsSearchCacheKey(p, pr.Page, pr.Size), f, pr)
}

// SearchBySkills lists ACTIVE jobs tagged with any of the named skills.
// Names with no matching tag are ignored.
func (u *JobSearch) SearchBySkills(ctx context.Context, skillNames []string, page, size int) (repository.JobPage, error) {
	pr, err := pageRequest(page, size, repository.SortPostedAt)
	if err != nil {
		return repository.JobPage{}, err
	}

	key := JobsBySkillsCacheKey(skillNames, pr.Page, pr.Size)
	if hit, ok := u.cacheGet(ctx, key); ok {
		return hit, nil
	}

	tags, err := u.tags.FindByNames(ctx, skillNames)
	if err != nil {
		return repository.JobPage{}, err
	}
	if len(tags) == 0 {
		return repository.JobPage{Items: []job.Job{}, Page: pr.Page, Size: pr.Size}, nil
	}

	ids := make([]uuid.UUID, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return u.cachedPage(ctx, key, repository.JobFilter{Status: job.StatusActive, SkillIDs: ids}, pr)
}

// ListActiveJobs is the public listing: ACTIVE jobs that have not passed
// their expiry, even if the sweep has not caught up yet.
func (u *JobSearch) ListActiveJobs(ctx context.Context, page, size int) (repository.JobPage, error) {
	pr, err := pageRequest(page, size, repository.SortPostedAt)
	if err != nil {
		return repository.JobPage{}, err
	}
	now := u.clock.now()
	f := repository.JobFilter{Status: job.StatusActive, ListedAsOf: &now}

	// not cached: the expiry cut-off moves with every call
	return u.jobs.FindPaged(ctx, f, pr)
}

func (u *JobSearch) ListCompanyJobs(ctx context.Context, companyID uuid.UUID, page, size int) (repository.JobPage, error) {
	if companyID == uuid.Nil {
		return repository.JobPage{}, apperr.Validation("company id is required")
	}
	pr, err := pageRequest(page, size, repository.SortCreatedAt)
	if err != nil {
		return repository.JobPage{}, err
	}
	return u.cachedPage(ctx, CompanyJobsCacheKey(companyID, pr.Page, pr.Size), repository.JobFilter{CompanyID: companyID}, pr)
}

func (u *JobSearch) cachedPage(ctx context.Context, key string, f repository.JobFilter, pr repository.PageRequest) (repository.JobPage, error) {
	if hit, ok := u.cacheGet(ctx, key); ok {
		return hit, nil
	}

	page, err := u.jobs.FindPaged(ctx, f, pr)
	if err != nil {
		return repository.JobPage{}, err
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, page, 0); err != nil {
			u.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

func (u *JobSearch) cacheGet(ctx context.Context, key string) (repository.JobPage, bool) {
	if u.cache == nil {
		return repository.JobPage{}, false
	}
	var cached repository.JobPage
	hit, err := u.cache.GetJSON(ctx, key, &cached)
	if err != nil || !hit {
		u.logger.Debug("cache miss", zap.String("key", key))
		return repository.JobPage{}, false
	}
	u.logger.Debug("cache hit", zap.String("key", key))
	return cached, true
}

func pageRequest(page, size int, sort repository.SortField) (repository.PageRequest, error) {
	if page < 0 {
		return repository.PageRequest{}, apperr.Validation("page must not be negative")
	}
	if size < 0 || size > repository.MaxPageSize {
		return repository.PageRequest{}, apperr.Validation("size must be between 1 and 100")
	}
	return repository.PageRequest{Page: page, Size: size, Sort: sort}.Normalize(), nil
}

func validateSalaryRange(lo, hi *int) error {
	if lo != nil && *lo < 0 {
		return apperr.Validation("min salary must not be negative")
	}
	if hi != nil && *hi < 0 {
		return apperr.Validation("max salary must not be negative")
	}
	if lo != nil && hi != nil && *lo > *hi {
		return apperr.Validation("min salary must not exceed max salary")
	}
	return nil
}
