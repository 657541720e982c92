package v1

import (
	"job-service/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Health *handler.HealthHandler
	Jobs   *handler.JobsHandler
	Skills *handler.SkillHandler
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Health != nil {
		h.Health.RegisterRoutes(r)
	}
	RegisterJobs(r, h.Jobs)
	RegisterSkills(r, h.Skills)
}
