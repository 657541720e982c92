package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/database"
	"job-service/internal/domain/job"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrJobNotFound = fmt.Errorf("job %w", apperr.ErrNotFound)
)

type JobRepository interface {
	// Save upserts j by id and replaces its skill associations with j.Skills.
	// Status, counters and PostedAt are only written on insert.
	Save(ctx context.Context, j job.Job) (job.Job, error)
	// Update writes the content fields and skill set of an existing job. It
	// returns ErrJobNotFound instead of inserting when the row is gone.
	Update(ctx context.Context, j job.Job) (job.Job, error)
	FindByID(ctx context.Context, id uuid.UUID) (job.Job, error)
	FindByIDWithSkills(ctx context.Context, id uuid.UUID) (job.Job, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)

	// TransitionStatus moves the job to `to` only while it is still in `from`.
	// postedAt is written when non-nil.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to job.Status, postedAt *time.Time, at time.Time) (bool, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) (bool, error)
	IncrementApplyCount(ctx context.Context, id uuid.UUID) (bool, error)

	FindPaged(ctx context.Context, f JobFilter, p PageRequest) (JobPage, error)
	FindExpired(ctx context.Context, asOf time.Time) ([]job.Job, error)
	ExpireAll(ctx context.Context, asOf time.Time) (int64, error)
	CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error)
	CountByCompanyAndStatus(ctx context.Context, companyID uuid.UUID, status job.Status) (int64, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const jobColumns = `j.id, j.company_id, j.title, COALESCE(j.description, ''), COALESCE(j.requirements, ''),
	j.job_type, j.experience_level, j.experience_min, j.experience_max, j.salary_min, j.salary_max,
	COALESCE(j.location, ''), j.remote_type, j.status, j.views_count, j.applies_count,
	j.posted_at, j.expires_at, j.created_at, j.updated_at`

func (r *PostgresJobRepository) Save(ctx context.Context, j job.Job) (job.Job, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return job.Job{}, apperr.Transient("begin save job", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO jobs (
			id, company_id, title, description, requirements,
			job_type, experience_level, experience_min, experience_max, salary_min, salary_max,
			location, remote_type, status, views_count, applies_count,
			posted_at, expires_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			requirements = EXCLUDED.requirements,
			job_type = EXCLUDED.job_type,
			experience_level = EXCLUDED.experience_level,
			experience_min = EXCLUDED.experience_min,
			experience_max = EXCLUDED.experience_max,
			salary_min = EXCLUDED.salary_min,
			salary_max = EXCLUDED.salary_max,
			location = EXCLUDED.location,
			remote_type = EXCLUDED.remote_type,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at`,
		j.ID, j.CompanyID, j.Title, j.Description, j.Requirements,
		nullText(string(j.JobType)), nullText(string(j.ExperienceLevel)),
		j.ExperienceMin, j.ExperienceMax, j.SalaryMin, j.SalaryMax,
		j.Location, nullText(string(j.RemoteType)), string(j.Status), j.ViewsCount, j.AppliesCount,
		j.PostedAt, j.ExpiresAt, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return job.Job{}, apperr.Transient("save job", err)
	}

	if err := replaceJobSkills(ctx, tx, j.ID, j.Skills); err != nil {
		return job.Job{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return job.Job{}, apperr.Transient("commit save job", err)
	}
	return r.FindByIDWithSkills(ctx, j.ID)
}

func (r *PostgresJobRepository) Update(ctx context.Context, j job.Job) (job.Job, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return job.Job{}, apperr.Transient("begin update job", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.Exec(ctx,
		`UPDATE jobs SET
			title = $2,
			description = $3,
			requirements = $4,
			job_type = $5,
			experience_level = $6,
			experience_min = $7,
			experience_max = $8,
			salary_min = $9,
			salary_max = $10,
			location = $11,
			remote_type = $12,
			expires_at = $13,
			updated_at = $14
		WHERE id = $1`,
		j.ID, j.Title, j.Description, j.Requirements,
		nullText(string(j.JobType)), nullText(string(j.ExperienceLevel)),
		j.ExperienceMin, j.ExperienceMax, j.SalaryMin, j.SalaryMax,
		j.Location, nullText(string(j.RemoteType)), j.ExpiresAt, j.UpdatedAt,
	)
	if err != nil {
		return job.Job{}, apperr.Transient("update job", err)
	}
	if n == 0 {
		return job.Job{}, ErrJobNotFound
	}

	if err := replaceJobSkills(ctx, tx, j.ID, j.Skills); err != nil {
		return job.Job{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return job.Job{}, apperr.Transient("commit update job", err)
	}
	return r.FindByIDWithSkills(ctx, j.ID)
}

func (r *PostgresJobRepository) FindByID(ctx context.Context, id uuid.UUID) (job.Job, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, ErrJobNotFound
		}
		return job.Job{}, apperr.Transient("find job", err)
	}
	return j, nil
}

// FindByIDWithSkills reads the job and its associations in one statement so a
// concurrent Save is never observed half applied.
func (r *PostgresJobRepository) FindByIDWithSkills(ctx context.Context, id uuid.UUID) (job.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+`, js.skill_id, st.name, st.category, js.is_required
		 FROM jobs j
		 LEFT JOIN job_skills js ON js.job_id = j.id
		 LEFT JOIN skill_tags st ON st.id = js.skill_id
		 WHERE j.id = $1
		 ORDER BY js.is_required DESC, st.name ASC`,
		id,
	)
	if err != nil {
		return job.Job{}, apperr.Transient("find job with skills", err)
	}
	defer rows.Close()

	var (
		out   job.Job
		found bool
	)
	for rows.Next() {
		var (
			sc    jobScan
			assoc assocScan
		)
		dest := append(sc.dest(), assoc.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return job.Job{}, apperr.Transient("scan job with skills", err)
		}
		if !found {
			out = sc.job()
			out.Skills = make([]job.SkillAssociation, 0)
			found = true
		}
		if a, ok := assoc.association(out.ID); ok {
			out.Skills = append(out.Skills, a)
		}
	}
	if err := rows.Err(); err != nil {
		return job.Job{}, apperr.Transient("read job with skills", err)
	}
	if !found {
		return job.Job{}, ErrJobNotFound
	}
	return out, nil
}

func (r *PostgresJobRepository) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, apperr.Transient("begin delete job", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM job_skills WHERE job_id = $1`, id); err != nil {
		return false, apperr.Transient("delete job skills", err)
	}
	n, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Transient("delete job", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, apperr.Transient("commit delete job", err)
	}
	return n > 0, nil
}

func (r *PostgresJobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to job.Status, postedAt *time.Time, at time.Time) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE jobs
		 SET status = $3, posted_at = COALESCE($4, posted_at), updated_at = $5
		 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), postedAt, at,
	)
	if err != nil {
		return false, apperr.Transient("transition job status", err)
	}
	return n > 0, nil
}

func (r *PostgresJobRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.db.Exec(ctx, `UPDATE jobs SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Transient("increment views", err)
	}
	return n > 0, nil
}

func (r *PostgresJobRepository) IncrementApplyCount(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.db.Exec(ctx, `UPDATE jobs SET applies_count = applies_count + 1 WHERE id = $1`, id)
	if err != nil {
		return false, apperr.Transient("increment applies", err)
	}
	return n > 0, nil
}

// jobScan holds the nullable columns of a jobs row until they are converted.
type jobScan struct {
	j               job.Job
	jobType         *string
	experienceLevel *string
	remoteType      *string
	status          string
}

func (s *jobScan) dest() []any {
	return []any{
		&s.j.ID, &s.j.CompanyID, &s.j.Title, &s.j.Description, &s.j.Requirements,
		&s.jobType, &s.experienceLevel, &s.j.ExperienceMin, &s.j.ExperienceMax, &s.j.SalaryMin, &s.j.SalaryMax,
		&s.j.Location, &s.remoteType, &s.status, &s.j.ViewsCount, &s.j.AppliesCount,
		&s.j.PostedAt, &s.j.ExpiresAt, &s.j.CreatedAt, &s.j.UpdatedAt,
	}
}

func (s *jobScan) job() job.Job {
	j := s.j
	if s.jobType != nil {
		j.JobType = job.Type(*s.jobType)
	}
	if s.experienceLevel != nil {
		j.ExperienceLevel = job.ExperienceLevel(*s.experienceLevel)
	}
	if s.remoteType != nil {
		j.RemoteType = job.RemoteType(*s.remoteType)
	}
	j.Status = job.Status(s.status)
	j.PostedAt = utcPtr(j.PostedAt)
	j.ExpiresAt = utcPtr(j.ExpiresAt)
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return j
}

func scanJob(row database.Row) (job.Job, error) {
	var s jobScan
	if err := row.Scan(s.dest()...); err != nil {
		return job.Job{}, err
	}
	return s.job(), nil
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
