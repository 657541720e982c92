package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"job-service/internal/infrastructure/cache"

	"github.com/google/uuid"
)

type jobSearchCacheKeyInput struct {
	Mode            string   `json:"mode"`
	Keyword         string   `json:"keyword,omitempty"`
	JobType         string   `json:"job_type,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	RemoteType      string   `json:"remote_type,omitempty"`
	Location        string   `json:"location,omitempty"`
	MinSalary       *int     `json:"min_salary,omitempty"`
	MaxSalary       *int     `json:"max_salary,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Page            int      `json:"page"`
	Size            int      `json:"size"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

func hashKey(prefix string, in any) string {
	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return prefix + hex.EncodeToString(sum[:])
}

// JobsSearchCacheKey is stable under case, whitespace and, in keyword mode,
// the structured filters that keyword search ignores.
func JobsSearchCacheKey(p SearchParams, page, size int) string {
	in := jobSearchCacheKeyInput{Mode: "filter", Page: page, Size: size}
	if kw := normalizeSearchValue(p.Keyword); kw != "" {
		in.Mode = "keyword"
		in.Keyword = kw
		return hashKey(cache.PrefixJobSearch, in)
	}
	in.JobType = string(p.JobType)
	in.ExperienceLevel = string(p.ExperienceLevel)
	in.RemoteType = string(p.RemoteType)
	in.Location = normalizeSearchValue(p.Location)
	in.MinSalary = p.MinSalary
	in.MaxSalary = p.MaxSalary
	return hashKey(cache.PrefixJobSearch, in)
}

func JobsBySkillsCacheKey(names []string, page, size int) string {
	skills := make([]string, 0, len(names))
	for _, s := range names {
		s = normalizeSearchValue(s)
		if s == "" {
			continue
		}
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return hashKey(cache.PrefixJobSearch, jobSearchCacheKeyInput{Mode: "skills", Skills: skills, Page: page, Size: size})
}

func CompanyJobsCacheKey(companyID uuid.UUID, page, size int) string {
	return cache.PrefixJobList + "company:" + companyID.String() + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(size)
}

func PopularSkillsCacheKey(limit int) string {
	return cache.PrefixPopularSkills + strconv.Itoa(limit)
}

func ExpiryLockKey() string {
	return cache.PrefixLock + "expiry-sweep"
}
