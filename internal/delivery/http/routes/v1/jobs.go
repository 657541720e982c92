package v1

import (
	"job-service/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

func RegisterJobs(r fiber.Router, jobsHandler *handler.JobsHandler) {
	if r == nil {
		return
	}
	if jobsHandler == nil {
		return
	}

	jobsHandler.RegisterRoutes(r)
}
