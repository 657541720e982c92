package repository

import (
	"context"

	"job-service/internal/apperr"
	"job-service/internal/database"
	"job-service/internal/domain/job"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// replaceJobSkills swaps the association set of a job inside tx. The old rows
// are removed before the new ones go in.
func replaceJobSkills(ctx context.Context, tx database.Tx, jobID uuid.UUID, skills []job.SkillAssociation) error {
	if _, err := tx.Exec(ctx, `DELETE FROM job_skills WHERE job_id = $1`, jobID); err != nil {
		return apperr.Transient("clear job skills", err)
	}
	for _, s := range skills {
		_, err := tx.Exec(ctx,
			`INSERT INTO job_skills (job_id, skill_id, is_required)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (job_id, skill_id) DO UPDATE SET is_required = job_skills.is_required OR EXCLUDED.is_required`,
			jobID, s.SkillID, s.IsRequired,
		)
		if err != nil {
			return apperr.Transient("insert job skill", err)
		}
	}
	return nil
}

func (r *PostgresJobRepository) findSkillsByJobIDs(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID][]job.SkillAssociation, error) {
	out := make(map[uuid.UUID][]job.SkillAssociation, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(jobIDs))
	for _, id := range jobIDs {
		ids = append(ids, id.String())
	}

	rows, err := r.db.Query(ctx,
		`SELECT js.job_id, js.skill_id, st.name, st.category, js.is_required
		 FROM job_skills js
		 JOIN skill_tags st ON st.id = js.skill_id
		 WHERE js.job_id = ANY($1::uuid[])
		 ORDER BY js.job_id, js.is_required DESC, st.name ASC`,
		ids,
	)
	if err != nil {
		return nil, apperr.Transient("load job skills", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			jobID uuid.UUID
			a     assocScan
		)
		if err := rows.Scan(append([]any{&jobID}, a.dest()...)...); err != nil {
			return nil, apperr.Transient("scan job skill", err)
		}
		if s, ok := a.association(jobID); ok {
			out[jobID] = append(out[jobID], s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("read job skills", err)
	}
	return out, nil
}

// assocScan reads the (possibly NULL, when left joined) association columns.
type assocScan struct {
	skillID    pgtype.UUID
	name       pgtype.Text
	category   pgtype.Text
	isRequired pgtype.Bool
}

func (a *assocScan) dest() []any {
	return []any{&a.skillID, &a.name, &a.category, &a.isRequired}
}

func (a *assocScan) association(jobID uuid.UUID) (job.SkillAssociation, bool) {
	if !a.skillID.Valid {
		return job.SkillAssociation{}, false
	}
	return job.SkillAssociation{
		JobID:      jobID,
		SkillID:    uuid.UUID(a.skillID.Bytes),
		SkillName:  a.name.String,
		Category:   a.category.String,
		IsRequired: a.isRequired.Bool,
	}, true
}
