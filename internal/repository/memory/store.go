// Package memory is an in-process implementation of the job and skill tag
// repositories. It enforces the same uniqueness and transition rules as the
// Postgres store and is safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"
	"job-service/internal/domain/skill"
	"job-service/internal/repository"
	"job-service/internal/search"

	"github.com/google/uuid"
)

var (
	_ repository.JobRepository      = (*Store)(nil)
	_ repository.SkillTagRepository = (*Store)(nil)
)

type assoc struct {
	skillID    uuid.UUID
	isRequired bool
}

type Store struct {
	mu sync.RWMutex

	jobs   map[uuid.UUID]job.Job
	skills map[uuid.UUID][]assoc // key: job id

	tags     map[uuid.UUID]skill.Tag
	tagByKey map[string]uuid.UUID // key: skill.Key(name)
}

func New() *Store {
	return &Store{
		jobs:     make(map[uuid.UUID]job.Job),
		skills:   make(map[uuid.UUID][]assoc),
		tags:     make(map[uuid.UUID]skill.Tag),
		tagByKey: make(map[string]uuid.UUID),
	}
}

// ──────────────────────────────────────────────────
// Jobs
// ──────────────────────────────────────────────────

func (s *Store) Save(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := j
	if cur, ok := s.jobs[j.ID]; ok {
		next = withContent(cur, j)
	}
	s.putLocked(next, j.Skills)
	return s.withSkillsLocked(s.jobs[j.ID]), nil
}

// Update never inserts: a job deleted since it was read stays deleted.
func (s *Store) Update(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.jobs[j.ID]
	if !ok {
		return job.Job{}, repository.ErrJobNotFound
	}
	s.putLocked(withContent(cur, j), j.Skills)
	return s.withSkillsLocked(s.jobs[j.ID]), nil
}

func withContent(cur, j job.Job) job.Job {
	next := cur
	next.Title = j.Title
	next.Description = j.Description
	next.Requirements = j.Requirements
	next.JobType = j.JobType
	next.ExperienceLevel = j.ExperienceLevel
	next.ExperienceMin = copyInt(j.ExperienceMin)
	next.ExperienceMax = copyInt(j.ExperienceMax)
	next.SalaryMin = copyInt(j.SalaryMin)
	next.SalaryMax = copyInt(j.SalaryMax)
	next.Location = j.Location
	next.RemoteType = j.RemoteType
	next.ExpiresAt = copyTime(j.ExpiresAt)
	next.UpdatedAt = j.UpdatedAt
	return next
}

func (s *Store) putLocked(next job.Job, skills []job.SkillAssociation) {
	next.Skills = nil
	s.jobs[next.ID] = cloneJob(next)

	set := make([]assoc, 0, len(skills))
	index := make(map[uuid.UUID]int, len(skills))
	for _, a := range skills {
		if i, dup := index[a.SkillID]; dup {
			set[i].isRequired = set[i].isRequired || a.IsRequired
			continue
		}
		index[a.SkillID] = len(set)
		set = append(set, assoc{skillID: a.SkillID, isRequired: a.IsRequired})
	}
	s.skills[next.ID] = set
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, repository.ErrJobNotFound
	}
	return cloneJob(j), nil
}

func (s *Store) FindByIDWithSkills(_ context.Context, id uuid.UUID) (job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, repository.ErrJobNotFound
	}
	return s.withSkillsLocked(j), nil
}

func (s *Store) DeleteByID(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false, nil
	}
	delete(s.skills, id)
	delete(s.jobs, id)
	return true, nil
}

func (s *Store) TransitionStatus(_ context.Context, id uuid.UUID, from, to job.Status, postedAt *time.Time, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != from {
		return false, nil
	}
	j.Status = to
	if postedAt != nil {
		j.PostedAt = copyTime(postedAt)
	}
	j.UpdatedAt = at
	s.jobs[id] = j
	return true, nil
}

func (s *Store) IncrementViewCount(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return false, nil
	}
	j.ViewsCount++
	s.jobs[id] = j
	return true, nil
}

func (s *Store) IncrementApplyCount(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return false, nil
	}
	j.AppliesCount++
	s.jobs[id] = j
	return true, nil
}

func (s *Store) FindPaged(_ context.Context, f repository.JobFilter, p repository.PageRequest) (repository.JobPage, error) {
	p = p.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]job.Job, 0)
	for _, j := range s.jobs {
		if s.matchesLocked(j, f) {
			matched = append(matched, j)
		}
	}
	sortJobs(matched, p.Sort)

	page := repository.JobPage{Items: make([]job.Job, 0), Total: int64(len(matched)), Page: p.Page, Size: p.Size}
	start := p.Offset()
	if start >= len(matched) {
		return page, nil
	}
	end := start + p.Size
	if end > len(matched) {
		end = len(matched)
	}
	for _, j := range matched[start:end] {
		page.Items = append(page.Items, s.withSkillsLocked(j))
	}
	return page, nil
}

func (s *Store) FindExpired(_ context.Context, asOf time.Time) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]job.Job, 0)
	for _, j := range s.jobs {
		if job.CanExpire(j, asOf) {
			out = append(out, cloneJob(j))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].ExpiresAt.Equal(*out[b].ExpiresAt) {
			return out[a].ExpiresAt.Before(*out[b].ExpiresAt)
		}
		return lessID(out[a].ID, out[b].ID)
	})
	return out, nil
}

func (s *Store) ExpireAll(_ context.Context, asOf time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, j := range s.jobs {
		expired, err := job.Expire(j, asOf)
		if err != nil {
			continue
		}
		s.jobs[id] = expired
		n++
	}
	return n, nil
}

func (s *Store) CountByCompany(_ context.Context, companyID uuid.UUID) (int64, error) {
	return s.count(func(j job.Job) bool { return j.CompanyID == companyID }), nil
}

func (s *Store) CountByCompanyAndStatus(_ context.Context, companyID uuid.UUID, status job.Status) (int64, error) {
	return s.count(func(j job.Job) bool { return j.CompanyID == companyID && j.Status == status }), nil
}

func (s *Store) count(pred func(job.Job) bool) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, j := range s.jobs {
		if pred(j) {
			n++
		}
	}
	return n
}

func (s *Store) matchesLocked(j job.Job, f repository.JobFilter) bool {
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		if !search.MatchesAll(j.Title, kw) && !search.MatchesAll(j.Description, kw) {
			return false
		}
	}
	if f.CompanyID != uuid.Nil && j.CompanyID != f.CompanyID {
		return false
	}
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.ListedAsOf != nil && j.ExpiresAt != nil && !j.ExpiresAt.After(*f.ListedAsOf) {
		return false
	}
	if f.JobType != "" && j.JobType != f.JobType {
		return false
	}
	if f.ExperienceLevel != "" && j.ExperienceLevel != f.ExperienceLevel {
		return false
	}
	if f.RemoteType != "" && j.RemoteType != f.RemoteType {
		return false
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		if !strings.Contains(strings.ToLower(j.Location), strings.ToLower(loc)) {
			return false
		}
	}
	if f.MinSalary != nil && j.SalaryMax != nil && *j.SalaryMax < *f.MinSalary {
		return false
	}
	if f.MaxSalary != nil && j.SalaryMin != nil && *j.SalaryMin > *f.MaxSalary {
		return false
	}
	if len(f.SkillIDs) > 0 && !s.referencesAnyLocked(j.ID, f.SkillIDs) {
		return false
	}
	return true
}

func (s *Store) referencesAnyLocked(jobID uuid.UUID, skillIDs []uuid.UUID) bool {
	for _, a := range s.skills[jobID] {
		for _, id := range skillIDs {
			if a.skillID == id {
				return true
			}
		}
	}
	return false
}

func (s *Store) withSkillsLocked(j job.Job) job.Job {
	out := cloneJob(j)
	out.Skills = make([]job.SkillAssociation, 0, len(s.skills[j.ID]))
	for _, a := range s.skills[j.ID] {
		t := s.tags[a.skillID]
		out.Skills = append(out.Skills, job.SkillAssociation{
			JobID:      j.ID,
			SkillID:    a.skillID,
			SkillName:  t.Name,
			Category:   t.Category,
			IsRequired: a.isRequired,
		})
	}
	sort.SliceStable(out.Skills, func(a, b int) bool {
		if out.Skills[a].IsRequired != out.Skills[b].IsRequired {
			return out.Skills[a].IsRequired
		}
		return out.Skills[a].SkillName < out.Skills[b].SkillName
	})
	return out
}

// sortJobs mirrors the SQL ordering: newest first, NULL timestamps last, id
// ascending on ties.
func sortJobs(jobs []job.Job, field repository.SortField) {
	key := func(j job.Job) *time.Time {
		if field == repository.SortCreatedAt {
			t := j.CreatedAt
			return &t
		}
		return j.PostedAt
	}
	sort.Slice(jobs, func(a, b int) bool {
		ka, kb := key(jobs[a]), key(jobs[b])
		switch {
		case ka == nil && kb != nil:
			return false
		case ka != nil && kb == nil:
			return true
		case ka != nil && kb != nil && !ka.Equal(*kb):
			return ka.After(*kb)
		}
		return lessID(jobs[a].ID, jobs[b].ID)
	})
}

// ──────────────────────────────────────────────────
// Skill tags
// ──────────────────────────────────────────────────

func (s *Store) FindByNameIgnoreCase(_ context.Context, name string) (skill.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tagByKey[skill.Key(name)]
	if !ok {
		return skill.Tag{}, repository.ErrSkillTagNotFound
	}
	return s.tags[id], nil
}

func (s *Store) FindByNames(_ context.Context, names []string) ([]skill.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]skill.Tag, 0, len(names))
	seen := make(map[uuid.UUID]struct{}, len(names))
	for _, n := range names {
		id, ok := s.tagByKey[skill.Key(n)]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, s.tags[id])
	}
	sortTags(out)
	return out, nil
}

func (s *Store) Create(_ context.Context, t skill.Tag) (skill.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := skill.Key(t.Name)
	if _, exists := s.tagByKey[key]; exists {
		return skill.Tag{}, apperr.Conflict("skill tag "+t.Name+" already exists", nil)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.tags[t.ID] = t
	s.tagByKey[key] = t.ID
	return t, nil
}

func (s *Store) FindByCategory(_ context.Context, category string) ([]skill.Tag, error) {
	return s.filterTags(func(t skill.Tag) bool { return t.Category == category }), nil
}

func (s *Store) SearchByName(_ context.Context, query string) ([]skill.Tag, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filterTags(func(t skill.Tag) bool { return strings.Contains(strings.ToLower(t.Name), q) }), nil
}

func (s *Store) FindAll(_ context.Context) ([]skill.Tag, error) {
	return s.filterTags(func(skill.Tag) bool { return true }), nil
}

func (s *Store) FindCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for _, t := range s.tags {
		if t.Category != "" {
			set[t.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) FindPopular(_ context.Context, limit int) ([]repository.PopularSkill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uuid.UUID]int64)
	for _, set := range s.skills {
		for _, a := range set {
			counts[a.skillID]++
		}
	}
	out := make([]repository.PopularSkill, 0, len(counts))
	for id, n := range counts {
		out = append(out, repository.PopularSkill{Tag: s.tags[id], JobCount: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].JobCount != out[b].JobCount {
			return out[a].JobCount > out[b].JobCount
		}
		return lessID(out[a].Tag.ID, out[b].Tag.ID)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) filterTags(pred func(skill.Tag) bool) []skill.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]skill.Tag, 0)
	for _, t := range s.tags {
		if pred(t) {
			out = append(out, t)
		}
	}
	sortTags(out)
	return out
}

func sortTags(tags []skill.Tag) {
	sort.Slice(tags, func(a, b int) bool {
		if tags[a].Name != tags[b].Name {
			return tags[a].Name < tags[b].Name
		}
		return lessID(tags[a].ID, tags[b].ID)
	})
}

// ──────────────────────────────────────────────────
// Copy helpers
// ──────────────────────────────────────────────────

func cloneJob(j job.Job) job.Job {
	out := j
	out.ExperienceMin = copyInt(j.ExperienceMin)
	out.ExperienceMax = copyInt(j.ExperienceMax)
	out.SalaryMin = copyInt(j.SalaryMin)
	out.SalaryMax = copyInt(j.SalaryMax)
	out.PostedAt = copyTime(j.PostedAt)
	out.ExpiresAt = copyTime(j.ExpiresAt)
	if j.Skills != nil {
		out.Skills = append([]job.SkillAssociation(nil), j.Skills...)
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func lessID(a, b uuid.UUID) bool {
	return strings.Compare(a.String(), b.String()) < 0
}
