package routes

import (
	"job-service/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	jobs   *handler.JobsHandler
	skills *handler.SkillHandler
}

func NewRegistry(health *handler.HealthHandler, jobs *handler.JobsHandler, skills *handler.SkillHandler) *Registry {
	return &Registry{health: health, jobs: jobs, skills: skills}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.health == nil {
		return
	}
	r.health.RegisterRoutes(app)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.health, r.jobs, r.skills)
}
