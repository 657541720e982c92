package dto

import (
	"job-service/internal/domain/job"
	"job-service/internal/repository"

	"github.com/google/uuid"
)

type JobSkillResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
}

type JobResponse struct {
	ID              uuid.UUID          `json:"id"`
	CompanyID       uuid.UUID          `json:"company_id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Requirements    string             `json:"requirements"`
	JobType         *string            `json:"job_type"`
	ExperienceLevel *string            `json:"experience_level"`
	ExperienceMin   *int               `json:"experience_min"`
	ExperienceMax   *int               `json:"experience_max"`
	SalaryMin       *int               `json:"salary_min"`
	SalaryMax       *int               `json:"salary_max"`
	Location        string             `json:"location"`
	RemoteType      *string            `json:"remote_type"`
	Status          string             `json:"status"`
	ViewsCount      int64              `json:"views_count"`
	AppliesCount    int64              `json:"applies_count"`
	PostedAt        *LocalDateTime     `json:"posted_at"`
	ExpiresAt       *LocalDateTime     `json:"expires_at"`
	CreatedAt       LocalDateTime      `json:"created_at"`
	UpdatedAt       LocalDateTime      `json:"updated_at"`
	RequiredSkills  []JobSkillResponse `json:"required_skills"`
	PreferredSkills []JobSkillResponse `json:"preferred_skills"`
}

type JobCountResponse struct {
	CompanyID uuid.UUID `json:"company_id"`
	Status    *string   `json:"status"`
	Count     int64     `json:"count"`
}

func NewJobResponse(j job.Job) JobResponse {
	return JobResponse{
		ID:              j.ID,
		CompanyID:       j.CompanyID,
		Title:           j.Title,
		Description:     j.Description,
		Requirements:    j.Requirements,
		JobType:         symbol(string(j.JobType)),
		ExperienceLevel: symbol(string(j.ExperienceLevel)),
		ExperienceMin:   j.ExperienceMin,
		ExperienceMax:   j.ExperienceMax,
		SalaryMin:       j.SalaryMin,
		SalaryMax:       j.SalaryMax,
		Location:        j.Location,
		RemoteType:      symbol(string(j.RemoteType)),
		Status:          string(j.Status),
		ViewsCount:      j.ViewsCount,
		AppliesCount:    j.AppliesCount,
		PostedAt:        NewLocalDateTimePtr(j.PostedAt),
		ExpiresAt:       NewLocalDateTimePtr(j.ExpiresAt),
		CreatedAt:       NewLocalDateTime(j.CreatedAt),
		UpdatedAt:       NewLocalDateTime(j.UpdatedAt),
		RequiredSkills:  newJobSkills(j.RequiredSkills()),
		PreferredSkills: newJobSkills(j.PreferredSkills()),
	}
}

func NewJobResponses(items []job.Job) []JobResponse {
	out := make([]JobResponse, 0, len(items))
	for _, j := range items {
		out = append(out, NewJobResponse(j))
	}
	return out
}

// NewJobPage keeps the envelope shape of every listing identical.
func NewJobPage(p repository.JobPage) JobPageResponse {
	return JobPageResponse{
		Items:      NewJobResponses(p.Items),
		Page:       p.Page,
		Size:       p.Size,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
	}
}

type JobPageResponse struct {
	Items      []JobResponse `json:"items"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
}

func newJobSkills(in []job.SkillAssociation) []JobSkillResponse {
	out := make([]JobSkillResponse, 0, len(in))
	for _, s := range in {
		out = append(out, JobSkillResponse{ID: s.SkillID, Name: s.SkillName, Category: s.Category})
	}
	return out
}

func symbol(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
