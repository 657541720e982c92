package dto

import (
	"job-service/internal/domain/skill"
	"job-service/internal/repository"

	"github.com/google/uuid"
)

type SkillTagResponse struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Category  string        `json:"category"`
	CreatedAt LocalDateTime `json:"created_at"`
}

type PopularSkillResponse struct {
	SkillTagResponse
	JobCount int64 `json:"job_count"`
}

func NewSkillTagResponse(t skill.Tag) SkillTagResponse {
	return SkillTagResponse{ID: t.ID, Name: t.Name, Category: t.Category, CreatedAt: NewLocalDateTime(t.CreatedAt)}
}

func NewSkillTagResponses(tags []skill.Tag) []SkillTagResponse {
	out := make([]SkillTagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, NewSkillTagResponse(t))
	}
	return out
}

func NewPopularSkillResponses(in []repository.PopularSkill) []PopularSkillResponse {
	out := make([]PopularSkillResponse, 0, len(in))
	for _, p := range in {
		out = append(out, PopularSkillResponse{SkillTagResponse: NewSkillTagResponse(p.Tag), JobCount: p.JobCount})
	}
	return out
}
