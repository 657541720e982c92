package usecase

import (
	"context"
	"errors"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"
	"job-service/internal/infrastructure/events"
	"job-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTransitionAttempts bounds the reload-and-retry loop when a concurrent
// writer changes the status between read and compare-and-set.
const maxTransitionAttempts = 3

type JobUsecase interface {
	CreateJob(ctx context.Context, in job.Content, required, preferred []string) (job.Job, error)
	UpdateJob(ctx context.Context, id uuid.UUID, in job.Content, required, preferred []string) (job.Job, error)
	GetJob(ctx context.Context, id uuid.UUID, incrementView bool) (job.Job, error)
	PublishJob(ctx context.Context, id uuid.UUID) (job.Job, error)
	PauseJob(ctx context.Context, id uuid.UUID) (job.Job, error)
	CloseJob(ctx context.Context, id uuid.UUID) (job.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error
	IncrementApplyCount(ctx context.Context, id uuid.UUID) error
	CountCompanyJobs(ctx context.Context, companyID uuid.UUID, status *job.Status) (int64, error)
}

type skillResolver interface {
	ResolveAssociations(ctx context.Context, required, preferred []string) ([]job.SkillAssociation, error)
}

type Jobs struct {
	jobs      repository.JobRepository
	skills    skillResolver
	cache     SearchCache
	publisher events.Publisher
	clock     Clock
	logger    *zap.Logger
}

func NewJobs(jobs repository.JobRepository, skills skillResolver, cache SearchCache, publisher events.Publisher, clock Clock, logger *zap.Logger) *Jobs {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Jobs{
		jobs:      jobs,
		skills:    skills,
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		logger:    logger.Named("jobs"),
	}
}

func (u *Jobs) CreateJob(ctx context.Context, in job.Content, required, preferred []string) (job.Job, error) {
	if err := in.Validate(); err != nil {
		return job.Job{}, err
	}
	assoc, err := u.skills.ResolveAssociations(ctx, required, preferred)
	if err != nil {
		return job.Job{}, err
	}

	now := u.clock.now()
	j := job.Job{
		ID:        uuid.New(),
		Status:    job.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	j.ApplyContent(normalizeContent(in))
	j.Skills = withJobID(assoc, j.ID)

	saved, err := u.jobs.Save(ctx, j)
	if err != nil {
		return job.Job{}, err
	}

	u.invalidate(ctx)
	u.logger.Info("job created", zap.String("job_id", saved.ID.String()), zap.String("company_id", saved.CompanyID.String()))
	return saved, nil
}

// UpdateJob replaces every content field, expiry included, and the whole skill
// set. Status and counters are untouched.
func (u *Jobs) UpdateJob(ctx context.Context, id uuid.UUID, in job.Content, required, preferred []string) (job.Job, error) {
	if err := in.Validate(); err != nil {
		return job.Job{}, err
	}
	cur, err := u.jobs.FindByID(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	assoc, err := u.skills.ResolveAssociations(ctx, required, preferred)
	if err != nil {
		return job.Job{}, err
	}

	cur.ApplyContent(normalizeContent(in))
	cur.UpdatedAt = u.clock.now()
	cur.Skills = withJobID(assoc, cur.ID)

	saved, err := u.jobs.Update(ctx, cur)
	if err != nil {
		return job.Job{}, err
	}

	u.invalidate(ctx)
	u.logger.Info("job updated", zap.String("job_id", saved.ID.String()))
	return saved, nil
}

// GetJob returns the job with its skills. With incrementView the counter is
// bumped first so the returned job includes this view.
func (u *Jobs) GetJob(ctx context.Context, id uuid.UUID, incrementView bool) (job.Job, error) {
	if incrementView {
		ok, err := u.jobs.IncrementViewCount(ctx, id)
		if err != nil {
			return job.Job{}, err
		}
		if !ok {
			return job.Job{}, repository.ErrJobNotFound
		}
	}
	return u.jobs.FindByIDWithSkills(ctx, id)
}

func (u *Jobs) PublishJob(ctx context.Context, id uuid.UUID) (job.Job, error) {
	return u.transition(ctx, id, job.Publish, events.JobPublished)
}

func (u *Jobs) PauseJob(ctx context.Context, id uuid.UUID) (job.Job, error) {
	return u.transition(ctx, id, job.Pause, events.JobPaused)
}

func (u *Jobs) CloseJob(ctx context.Context, id uuid.UUID) (job.Job, error) {
	return u.transition(ctx, id, job.Close, events.JobClosed)
}

// DeleteJob removes the job and its associations. Deleting an unknown id is
// not an error.
func (u *Jobs) DeleteJob(ctx context.Context, id uuid.UUID) error {
	cur, err := u.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}

	deleted, err := u.jobs.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}

	u.invalidate(ctx)
	u.publish(ctx, events.JobDeleted, cur)
	u.logger.Info("job deleted", zap.String("job_id", id.String()))
	return nil
}

// IncrementApplyCount is fire and forget: an unknown id is ignored.
func (u *Jobs) IncrementApplyCount(ctx context.Context, id uuid.UUID) error {
	ok, err := u.jobs.IncrementApplyCount(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		u.logger.Debug("apply count for unknown job ignored", zap.String("job_id", id.String()))
	}
	return nil
}

func (u *Jobs) CountCompanyJobs(ctx context.Context, companyID uuid.UUID, status *job.Status) (int64, error) {
	if companyID == uuid.Nil {
		return 0, apperr.Validation("company id is required")
	}
	if status == nil {
		return u.jobs.CountByCompany(ctx, companyID)
	}
	return u.jobs.CountByCompanyAndStatus(ctx, companyID, *status)
}

type transitionFunc func(job.Job, time.Time) (job.Job, bool, error)

func (u *Jobs) transition(ctx context.Context, id uuid.UUID, apply transitionFunc, evt events.Type) (job.Job, error) {
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		cur, err := u.jobs.FindByIDWithSkills(ctx, id)
		if err != nil {
			return job.Job{}, err
		}

		now := u.clock.now()
		next, changed, err := apply(cur, now)
		if err != nil {
			return job.Job{}, err
		}
		if !changed {
			return cur, nil
		}

		var postedAt *time.Time
		if cur.PostedAt == nil {
			postedAt = next.PostedAt
		}
		ok, err := u.jobs.TransitionStatus(ctx, id, cur.Status, next.Status, postedAt, now)
		if err != nil {
			return job.Job{}, err
		}
		if ok {
			u.invalidate(ctx)
			u.publish(ctx, evt, next)
			u.logger.Info("job status changed",
				zap.String("job_id", id.String()),
				zap.String("from", string(cur.Status)),
				zap.String("to", string(next.Status)))
			return next, nil
		}

		u.logger.Debug("job status changed concurrently, retrying",
			zap.String("job_id", id.String()), zap.Int("attempt", attempt))
	}
	return job.Job{}, apperr.Conflict("job status changed concurrently", nil)
}

func (u *Jobs) invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.InvalidateJobs(ctx); err != nil {
		u.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func (u *Jobs) publish(ctx context.Context, t events.Type, j job.Job) {
	id, company := j.ID, j.CompanyID
	e := events.Event{
		Type:       t,
		JobID:      &id,
		CompanyID:  &company,
		Status:     string(j.Status),
		OccurredAt: u.clock.now(),
	}
	if err := u.publisher.Publish(ctx, e); err != nil {
		u.logger.Warn("publish event failed", zap.String("type", string(t)), zap.Error(err))
	}
}

func normalizeContent(in job.Content) job.Content {
	if in.ExpiresAt != nil {
		t := in.ExpiresAt.UTC().Truncate(time.Microsecond)
		in.ExpiresAt = &t
	}
	return in
}

func withJobID(assoc []job.SkillAssociation, id uuid.UUID) []job.SkillAssociation {
	out := make([]job.SkillAssociation, len(assoc))
	for i, a := range assoc {
		a.JobID = id
		out[i] = a
	}
	return out
}
