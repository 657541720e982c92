package routes

import (
	"job-service/internal/delivery/http/handler"
	v1 "job-service/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
)

func RegisterV1(r fiber.Router, health *handler.HealthHandler, jobs *handler.JobsHandler, skills *handler.SkillHandler) {
	if r == nil {
		return
	}

	v1.Register(r, v1.Handlers{Health: health, Jobs: jobs, Skills: skills})
}
