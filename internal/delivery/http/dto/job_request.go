package dto

import (
	"job-service/internal/domain/job"

	"github.com/google/uuid"
)

// JobRequest is the body of create and update. Update replaces every field.
type JobRequest struct {
	CompanyID       uuid.UUID      `json:"company_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Requirements    string         `json:"requirements"`
	JobType         string         `json:"job_type"`
	ExperienceLevel string         `json:"experience_level"`
	ExperienceMin   *int           `json:"experience_min"`
	ExperienceMax   *int           `json:"experience_max"`
	SalaryMin       *int           `json:"salary_min"`
	SalaryMax       *int           `json:"salary_max"`
	Location        string         `json:"location"`
	RemoteType      string         `json:"remote_type"`
	ExpiresAt       *LocalDateTime `json:"expires_at"`
	RequiredSkills  []string       `json:"required_skills"`
	PreferredSkills []string       `json:"preferred_skills"`
}

// Content converts the request. Unknown enum symbols are left unset and
// reported by field name so the caller can log them.
func (r JobRequest) Content() (job.Content, []string) {
	var unknown []string

	jobType, ok := job.ParseType(r.JobType)
	if !ok && r.JobType != "" {
		unknown = append(unknown, "job_type")
	}
	level, ok := job.ParseExperienceLevel(r.ExperienceLevel)
	if !ok && r.ExperienceLevel != "" {
		unknown = append(unknown, "experience_level")
	}
	remote, ok := job.ParseRemoteType(r.RemoteType)
	if !ok && r.RemoteType != "" {
		unknown = append(unknown, "remote_type")
	}

	return job.Content{
		CompanyID:       r.CompanyID,
		Title:           r.Title,
		Description:     r.Description,
		Requirements:    r.Requirements,
		JobType:         jobType,
		ExperienceLevel: level,
		ExperienceMin:   r.ExperienceMin,
		ExperienceMax:   r.ExperienceMax,
		SalaryMin:       r.SalaryMin,
		SalaryMax:       r.SalaryMax,
		Location:        r.Location,
		RemoteType:      remote,
		ExpiresAt:       r.ExpiresAt.TimePtr(),
	}, unknown
}
