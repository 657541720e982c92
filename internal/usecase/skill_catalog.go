package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"
	"job-service/internal/domain/skill"
	"job-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPopularLimit = 10
	MaxPopularLimit     = 100
)

type SkillCatalogUsecase interface {
	Resolve(ctx context.Context, name, category string) (skill.Tag, error)
	ListByCategory(ctx context.Context, category string) ([]skill.Tag, error)
	Search(ctx context.Context, query string) ([]skill.Tag, error)
	ListAll(ctx context.Context) ([]skill.Tag, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListPopular(ctx context.Context, limit int) ([]repository.PopularSkill, error)
}

type SkillCatalog struct {
	repo   repository.SkillTagRepository
	cache  SearchCache
	clock  Clock
	logger *zap.Logger
}

func NewSkillCatalog(repo repository.SkillTagRepository, cache SearchCache, clock Clock, logger *zap.Logger) *SkillCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkillCatalog{repo: repo, cache: cache, clock: clock, logger: logger.Named("skills")}
}

// Resolve returns the tag named name, creating it with category when no tag
// matches case-insensitively. An existing tag keeps its category. Losing a
// concurrent create is resolved by reading the winner.
func (u *SkillCatalog) Resolve(ctx context.Context, name, category string) (skill.Tag, error) {
	name = skill.NormalizeName(name)
	category = strings.TrimSpace(category)
	if err := validateTag(name, category); err != nil {
		return skill.Tag{}, err
	}

	existing, err := u.repo.FindByNameIgnoreCase(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return skill.Tag{}, err
	}

	created, err := u.repo.Create(ctx, skill.Tag{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		CreatedAt: u.clock.now(),
	})
	if err == nil {
		u.logger.Debug("skill tag created", zap.String("name", created.Name), zap.String("id", created.ID.String()))
		return created, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return skill.Tag{}, err
	}

	u.logger.Debug("skill tag create lost race, re-reading", zap.String("name", name))
	return u.repo.FindByNameIgnoreCase(ctx, name)
}

// ResolveAssociations resolves both name lists into one association set. A
// name listed as both required and preferred is kept once, as required.
func (u *SkillCatalog) ResolveAssociations(ctx context.Context, required, preferred []string) ([]job.SkillAssociation, error) {
	out := make([]job.SkillAssociation, 0, len(required)+len(preferred))
	index := make(map[uuid.UUID]int, len(required)+len(preferred))

	add := func(names []string, isRequired bool) error {
		for _, n := range names {
			if skill.NormalizeName(n) == "" {
				continue
			}
			t, err := u.Resolve(ctx, n, "")
			if err != nil {
				return err
			}
			if i, ok := index[t.ID]; ok {
				out[i].IsRequired = out[i].IsRequired || isRequired
				continue
			}
			index[t.ID] = len(out)
			out = append(out, job.SkillAssociation{
				SkillID:    t.ID,
				SkillName:  t.Name,
				Category:   t.Category,
				IsRequired: isRequired,
			})
		}
		return nil
	}

	if err := add(required, true); err != nil {
		return nil, err
	}
	if err := add(preferred, false); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *SkillCatalog) ListByCategory(ctx context.Context, category string) ([]skill.Tag, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.Validation("category is required")
	}
	return u.repo.FindByCategory(ctx, category)
}

func (u *SkillCatalog) Search(ctx context.Context, query string) ([]skill.Tag, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return u.repo.FindAll(ctx)
	}
	return u.repo.SearchByName(ctx, query)
}

func (u *SkillCatalog) ListAll(ctx context.Context) ([]skill.Tag, error) {
	return u.repo.FindAll(ctx)
}

func (u *SkillCatalog) ListCategories(ctx context.Context) ([]string, error) {
	return u.repo.FindCategories(ctx)
}

// ListPopular ranks tags by the number of jobs referencing them. Tags no job
// references are left out.
func (u *SkillCatalog) ListPopular(ctx context.Context, limit int) ([]repository.PopularSkill, error) {
	if limit == 0 {
		limit = DefaultPopularLimit
	}
	if limit < 0 || limit > MaxPopularLimit {
		return nil, apperr.Validation("limit must be between 1 and 100")
	}

	key := PopularSkillsCacheKey(limit)
	if u.cache != nil {
		var cached []repository.PopularSkill
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	out, err := u.repo.FindPopular(ctx, limit)
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, out, 0); err != nil {
			u.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

func validateTag(name, category string) error {
	if name == "" {
		return apperr.Validation("skill name is required")
	}
	if utf8.RuneCountInString(name) > skill.MaxNameLength {
		return apperr.Validation("skill name is too long")
	}
	if utf8.RuneCountInString(category) > skill.MaxCategoryLength {
		return apperr.Validation("skill category is too long")
	}
	return nil
}
