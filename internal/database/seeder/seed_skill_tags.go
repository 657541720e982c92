package seeder

import (
	"context"
	"fmt"
	"time"

	"job-service/internal/database"

	"github.com/google/uuid"
)

// SkillTagsSeeder inserts a starter catalog. Names that already exist in any
// casing are left untouched.
type SkillTagsSeeder struct{}

func (SkillTagsSeeder) Name() string { return "skill_tags" }

type seedTag struct {
	Name     string
	Category string
}

var defaultSkillTags = []seedTag{
	{Name: "Go", Category: "Programming Language"},
	{Name: "Java", Category: "Programming Language"},
	{Name: "Kotlin", Category: "Programming Language"},
	{Name: "Python", Category: "Programming Language"},
	{Name: "Rust", Category: "Programming Language"},
	{Name: "TypeScript", Category: "Programming Language"},
	{Name: "gRPC", Category: "Framework"},
	{Name: "Spring Boot", Category: "Framework"},
	{Name: "React", Category: "Framework"},
	{Name: "PostgreSQL", Category: "Database"},
	{Name: "Redis", Category: "Database"},
	{Name: "Kafka", Category: "Messaging"},
	{Name: "NATS", Category: "Messaging"},
	{Name: "Docker", Category: "DevOps"},
	{Name: "Kubernetes", Category: "DevOps"},
	{Name: "AWS", Category: "Cloud"},
	{Name: "GCP", Category: "Cloud"},
}

func (SkillTagsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "skill_tags", "id", "name", "category", "created_at"); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	now := time.Now().UTC().Truncate(time.Microsecond)
	for _, it := range defaultSkillTags {
		// conflicts on the lower(name) unique index are expected on re-runs
		_, err := tx.Exec(
			ctx,
			`INSERT INTO skill_tags (id, name, category, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			uuid.New(),
			it.Name,
			it.Category,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", it.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
