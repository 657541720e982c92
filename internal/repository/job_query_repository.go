package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SortField string

const (
	SortPostedAt  SortField = "posted_at"
	SortCreatedAt SortField = "created_at"
)

// JobFilter narrows FindPaged. Zero values mean "no constraint". Keyword
// matches title or description; the remaining fields are ANDed.
type JobFilter struct {
	Keyword   string
	CompanyID uuid.UUID
	Status    job.Status

	// ListedAsOf keeps only jobs whose expiry is unset or after the instant.
	ListedAsOf *time.Time

	JobType         job.Type
	ExperienceLevel job.ExperienceLevel
	RemoteType      job.RemoteType
	Location        string
	MinSalary       *int
	MaxSalary       *int

	// SkillIDs keeps jobs referencing any of the tags.
	SkillIDs []uuid.UUID
}

type PageRequest struct {
	Page int
	Size int
	Sort SortField
}

// Normalize applies the default size and clamps it to MaxPageSize.
func (p PageRequest) Normalize() PageRequest {
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Sort == "" {
		p.Sort = SortPostedAt
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type JobPage struct {
	Items []job.Job
	Total int64
	Page  int
	Size  int
}

func (p JobPage) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

func (r *PostgresJobRepository) FindPaged(ctx context.Context, f JobFilter, p PageRequest) (JobPage, error) {
	p = p.Normalize()
	where, args := buildJobWhere(f)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs j`+where, args...).Scan(&total); err != nil {
		return JobPage{}, apperr.Transient("count jobs", err)
	}

	page := JobPage{Items: make([]job.Job, 0), Total: total, Page: p.Page, Size: p.Size}
	if total == 0 || int64(p.Offset()) >= total {
		return page, nil
	}

	query := `SELECT ` + jobColumns + ` FROM jobs j` + where + orderBy(p.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, p.Size, p.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return JobPage{}, apperr.Transient("list jobs", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, p.Size)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return JobPage{}, apperr.Transient("scan job", err)
		}
		page.Items = append(page.Items, j)
		ids = append(ids, j.ID)
	}
	if err := rows.Err(); err != nil {
		return JobPage{}, apperr.Transient("read jobs", err)
	}

	skills, err := r.findSkillsByJobIDs(ctx, ids)
	if err != nil {
		return JobPage{}, err
	}
	for i := range page.Items {
		page.Items[i].Skills = skills[page.Items[i].ID]
		if page.Items[i].Skills == nil {
			page.Items[i].Skills = make([]job.SkillAssociation, 0)
		}
	}
	return page, nil
}

func (r *PostgresJobRepository) FindExpired(ctx context.Context, asOf time.Time) ([]job.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+`
		 FROM jobs j
		 WHERE j.status = $1 AND j.expires_at IS NOT NULL AND j.expires_at < $2
		 ORDER BY j.expires_at ASC, j.id ASC`,
		string(job.StatusActive), asOf,
	)
	if err != nil {
		return nil, apperr.Transient("find expired jobs", err)
	}
	defer rows.Close()

	out := make([]job.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperr.Transient("scan expired job", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("read expired jobs", err)
	}
	return out, nil
}

// ExpireAll re-checks the status inside the UPDATE, so jobs closed or paused
// after FindExpired ran are left alone.
func (r *PostgresJobRepository) ExpireAll(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = $3
		 WHERE status = $2 AND expires_at IS NOT NULL AND expires_at < $3`,
		string(job.StatusExpired), string(job.StatusActive), asOf,
	)
	if err != nil {
		return 0, apperr.Transient("expire jobs", err)
	}
	return n, nil
}

func (r *PostgresJobRepository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var c int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM jobs WHERE company_id = $1`, companyID).Scan(&c); err != nil {
		return 0, apperr.Transient("count company jobs", err)
	}
	return c, nil
}

func (r *PostgresJobRepository) CountByCompanyAndStatus(ctx context.Context, companyID uuid.UUID, status job.Status) (int64, error) {
	var c int64
	row := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM jobs WHERE company_id = $1 AND status = $2`, companyID, string(status))
	if err := row.Scan(&c); err != nil {
		return 0, apperr.Transient("count company jobs by status", err)
	}
	return c, nil
}

func buildJobWhere(f JobFilter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	add := func(format string, v any) {
		conditions = append(conditions, fmt.Sprintf(format, argIdx))
		args = append(args, v)
		argIdx++
	}

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(to_tsvector('english', j.title) @@ plainto_tsquery('english', $%d)"+
				" OR to_tsvector('english', COALESCE(j.description, '')) @@ plainto_tsquery('english', $%d))",
			argIdx, argIdx))
		args = append(args, kw)
		argIdx++
	}
	if f.CompanyID != uuid.Nil {
		add("j.company_id = $%d", f.CompanyID)
	}
	if f.Status != "" {
		add("j.status = $%d", string(f.Status))
	}
	if f.ListedAsOf != nil {
		add("(j.expires_at IS NULL OR j.expires_at > $%d)", *f.ListedAsOf)
	}
	if f.JobType != "" {
		add("j.job_type = $%d", string(f.JobType))
	}
	if f.ExperienceLevel != "" {
		add("j.experience_level = $%d", string(f.ExperienceLevel))
	}
	if f.RemoteType != "" {
		add("j.remote_type = $%d", string(f.RemoteType))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		add(`LOWER(j.location) LIKE $%d ESCAPE '\'`, "%"+escapeLike(strings.ToLower(loc))+"%")
	}
	if f.MinSalary != nil {
		add("(j.salary_max IS NULL OR j.salary_max >= $%d)", *f.MinSalary)
	}
	if f.MaxSalary != nil {
		add("(j.salary_min IS NULL OR j.salary_min <= $%d)", *f.MaxSalary)
	}
	if len(f.SkillIDs) > 0 {
		ids := make([]string, 0, len(f.SkillIDs))
		for _, id := range f.SkillIDs {
			ids = append(ids, id.String())
		}
		add("EXISTS (SELECT 1 FROM job_skills js WHERE js.job_id = j.id AND js.skill_id = ANY($%d::uuid[]))", ids)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func orderBy(s SortField) string {
	if s == SortCreatedAt {
		return " ORDER BY j.created_at DESC, j.id ASC"
	}
	return " ORDER BY j.posted_at DESC NULLS LAST, j.id ASC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
