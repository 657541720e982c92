package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"job-service/internal/apperr"
	"job-service/internal/database"
	"job-service/internal/domain/skill"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSkillTagNotFound = fmt.Errorf("skill tag %w", apperr.ErrNotFound)
)

type PopularSkill struct {
	Tag      skill.Tag
	JobCount int64
}

type SkillTagRepository interface {
	FindByNameIgnoreCase(ctx context.Context, name string) (skill.Tag, error)
	FindByNames(ctx context.Context, names []string) ([]skill.Tag, error)
	// Create returns an apperr.ErrConflict error when another tag already
	// holds the name case-insensitively.
	Create(ctx context.Context, t skill.Tag) (skill.Tag, error)
	FindByCategory(ctx context.Context, category string) ([]skill.Tag, error)
	SearchByName(ctx context.Context, query string) ([]skill.Tag, error)
	FindAll(ctx context.Context) ([]skill.Tag, error)
	FindCategories(ctx context.Context) ([]string, error)
	FindPopular(ctx context.Context, limit int) ([]PopularSkill, error)
}

type PostgresSkillTagRepository struct {
	db database.DB
}

func NewPostgresSkillTagRepository(db database.DB) *PostgresSkillTagRepository {
	return &PostgresSkillTagRepository{db: db}
}

const tagColumns = `id, name, COALESCE(category, ''), created_at`

func (r *PostgresSkillTagRepository) FindByNameIgnoreCase(ctx context.Context, name string) (skill.Tag, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tagColumns+` FROM skill_tags WHERE LOWER(name) = $1`, skill.Key(name))
	t, err := scanTag(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return skill.Tag{}, ErrSkillTagNotFound
		}
		return skill.Tag{}, apperr.Transient("find skill tag", err)
	}
	return t, nil
}

func (r *PostgresSkillTagRepository) FindByNames(ctx context.Context, names []string) ([]skill.Tag, error) {
	keys := make([]string, 0, len(names))
	for _, n := range names {
		if k := skill.Key(n); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return []skill.Tag{}, nil
	}
	return r.queryTags(ctx, `SELECT `+tagColumns+` FROM skill_tags WHERE LOWER(name) = ANY($1::text[]) ORDER BY name ASC`, keys)
}

func (r *PostgresSkillTagRepository) Create(ctx context.Context, t skill.Tag) (skill.Tag, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO skill_tags (id, name, category, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+tagColumns,
		t.ID, t.Name, nullText(t.Category), t.CreatedAt,
	)
	out, err := scanTag(row)
	if err != nil {
		if isUniqueViolation(err) {
			return skill.Tag{}, apperr.Conflict("skill tag "+t.Name+" already exists", err)
		}
		return skill.Tag{}, apperr.Transient("create skill tag", err)
	}
	return out, nil
}

func (r *PostgresSkillTagRepository) FindByCategory(ctx context.Context, category string) ([]skill.Tag, error) {
	return r.queryTags(ctx, `SELECT `+tagColumns+` FROM skill_tags WHERE category = $1 ORDER BY name ASC`, category)
}

func (r *PostgresSkillTagRepository) SearchByName(ctx context.Context, query string) ([]skill.Tag, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	return r.queryTags(ctx, `SELECT `+tagColumns+` FROM skill_tags WHERE LOWER(name) LIKE $1 ESCAPE '\' ORDER BY name ASC`, pattern)
}

func (r *PostgresSkillTagRepository) FindAll(ctx context.Context) ([]skill.Tag, error) {
	return r.queryTags(ctx, `SELECT `+tagColumns+` FROM skill_tags ORDER BY name ASC`)
}

func (r *PostgresSkillTagRepository) FindCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM skill_tags WHERE category IS NOT NULL AND category <> '' ORDER BY category ASC`)
	if err != nil {
		return nil, apperr.Transient("list skill categories", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, apperr.Transient("scan skill category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("read skill categories", err)
	}
	return out, nil
}

func (r *PostgresSkillTagRepository) FindPopular(ctx context.Context, limit int) ([]PopularSkill, error) {
	rows, err := r.db.Query(ctx,
		`SELECT st.id, st.name, COALESCE(st.category, ''), st.created_at, COUNT(DISTINCT js.job_id) AS job_count
		 FROM skill_tags st
		 JOIN job_skills js ON js.skill_id = st.id
		 GROUP BY st.id, st.name, st.category, st.created_at
		 ORDER BY job_count DESC, st.id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, apperr.Transient("list popular skills", err)
	}
	defer rows.Close()

	out := make([]PopularSkill, 0, limit)
	for rows.Next() {
		var p PopularSkill
		if err := rows.Scan(&p.Tag.ID, &p.Tag.Name, &p.Tag.Category, &p.Tag.CreatedAt, &p.JobCount); err != nil {
			return nil, apperr.Transient("scan popular skill", err)
		}
		p.Tag.CreatedAt = p.Tag.CreatedAt.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("read popular skills", err)
	}
	return out, nil
}

func (r *PostgresSkillTagRepository) queryTags(ctx context.Context, query string, args ...any) ([]skill.Tag, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Transient("query skill tags", err)
	}
	defer rows.Close()

	out := make([]skill.Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, apperr.Transient("scan skill tag", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("read skill tags", err)
	}
	return out, nil
}

func scanTag(row database.Row) (skill.Tag, error) {
	var t skill.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Category, &t.CreatedAt); err != nil {
		return skill.Tag{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
