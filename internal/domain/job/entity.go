package job

import (
	"strings"
	"time"
	"unicode/utf8"

	"job-service/internal/apperr"

	"github.com/google/uuid"
)

const (
	MaxTitleLength    = 200
	MaxLocationLength = 200
)

type Type string

const (
	TypeFullTime   Type = "FULL_TIME"
	TypePartTime   Type = "PART_TIME"
	TypeContract   Type = "CONTRACT"
	TypeInternship Type = "INTERNSHIP"
	TypeFreelance  Type = "FREELANCE"
)

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "ENTRY"
	ExperienceJunior    ExperienceLevel = "JUNIOR"
	ExperienceMid       ExperienceLevel = "MID"
	ExperienceSenior    ExperienceLevel = "SENIOR"
	ExperienceLead      ExperienceLevel = "LEAD"
	ExperienceExecutive ExperienceLevel = "EXECUTIVE"
)

type RemoteType string

const (
	RemoteOnsite RemoteType = "ONSITE"
	RemoteRemote RemoteType = "REMOTE"
	RemoteHybrid RemoteType = "HYBRID"
)

// ParseType, ParseExperienceLevel and ParseRemoteType report ok=false for
// unknown symbols; callers treat that as unset.
func ParseType(s string) (Type, bool) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeFullTime, TypePartTime, TypeContract, TypeInternship, TypeFreelance:
		return t, true
	}
	return "", false
}

func ParseExperienceLevel(s string) (ExperienceLevel, bool) {
	switch l := ExperienceLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case ExperienceEntry, ExperienceJunior, ExperienceMid, ExperienceSenior, ExperienceLead, ExperienceExecutive:
		return l, true
	}
	return "", false
}

func ParseRemoteType(s string) (RemoteType, bool) {
	switch r := RemoteType(strings.ToUpper(strings.TrimSpace(s))); r {
	case RemoteOnsite, RemoteRemote, RemoteHybrid:
		return r, true
	}
	return "", false
}

// Job is the aggregate root for a posting. Empty enum values mean unset.
type Job struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Title        string
	Description  string
	Requirements string

	JobType         Type
	ExperienceLevel ExperienceLevel
	ExperienceMin   *int
	ExperienceMax   *int
	SalaryMin       *int
	SalaryMax       *int
	Location        string
	RemoteType      RemoteType

	Status       Status
	ViewsCount   int64
	AppliesCount int64

	PostedAt  *time.Time
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Skills []SkillAssociation
}

// SkillAssociation links a job to a skill tag. (JobID, SkillID) is unique.
type SkillAssociation struct {
	JobID      uuid.UUID
	SkillID    uuid.UUID
	SkillName  string
	Category   string
	IsRequired bool
}

// Content is the set of fields an employer edits. Update replaces all of
// them at once.
type Content struct {
	CompanyID       uuid.UUID
	Title           string
	Description     string
	Requirements    string
	JobType         Type
	ExperienceLevel ExperienceLevel
	ExperienceMin   *int
	ExperienceMax   *int
	SalaryMin       *int
	SalaryMax       *int
	Location        string
	RemoteType      RemoteType
	ExpiresAt       *time.Time
}

func (c Content) Validate() error {
	if c.CompanyID == uuid.Nil {
		return apperr.Validation("company id is required")
	}
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperr.Validation("title is too long")
	}
	if utf8.RuneCountInString(c.Location) > MaxLocationLength {
		return apperr.Validation("location is too long")
	}
	if err := validateRange("experience", c.ExperienceMin, c.ExperienceMax); err != nil {
		return err
	}
	if err := validateRange("salary", c.SalaryMin, c.SalaryMax); err != nil {
		return err
	}
	return nil
}

func validateRange(name string, lo, hi *int) error {
	if lo != nil && *lo < 0 {
		return apperr.Validation(name + " min must not be negative")
	}
	if hi != nil && *hi < 0 {
		return apperr.Validation(name + " max must not be negative")
	}
	if lo != nil && hi != nil && *lo > *hi {
		return apperr.Validation(name + " min must not exceed max")
	}
	return nil
}

// ApplyContent overwrites every editable field of j. The company is only
// taken from c when the job has none yet.
func (j *Job) ApplyContent(c Content) {
	if j.CompanyID == uuid.Nil {
		j.CompanyID = c.CompanyID
	}
	j.Title = strings.TrimSpace(c.Title)
	j.Description = c.Description
	j.Requirements = c.Requirements
	j.JobType = c.JobType
	j.ExperienceLevel = c.ExperienceLevel
	j.ExperienceMin = c.ExperienceMin
	j.ExperienceMax = c.ExperienceMax
	j.SalaryMin = c.SalaryMin
	j.SalaryMax = c.SalaryMax
	j.Location = c.Location
	j.RemoteType = c.RemoteType
	j.ExpiresAt = c.ExpiresAt
}

// IsListed reports whether the job shows up in the public active listing at now.
func (j Job) IsListed(now time.Time) bool {
	if j.Status != StatusActive {
		return false
	}
	return j.ExpiresAt == nil || j.ExpiresAt.After(now)
}

func (j Job) RequiredSkills() []SkillAssociation {
	return j.filterSkills(true)
}

func (j Job) PreferredSkills() []SkillAssociation {
	return j.filterSkills(false)
}

func (j Job) filterSkills(required bool) []SkillAssociation {
	out := make([]SkillAssociation, 0, len(j.Skills))
	for _, s := range j.Skills {
		if s.IsRequired == required {
			out = append(out, s)
		}
	}
	return out
}
