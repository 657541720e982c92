package handler

import (
	"context"
	"time"

	"job-service/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheProbe is satisfied by the redis cache, which may run in bypass mode.
type CacheProbe interface {
	Pinger
	Enabled() bool
}

type HealthHandler struct {
	db      Pinger
	cache   CacheProbe
	timeout time.Duration
}

type healthResponse struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

func NewHealthHandler(db Pinger, cache CacheProbe) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

// Health reports 503 only when the database is down.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	out := healthResponse{Database: "up", Cache: "disabled"}
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			out.Database = "down"
		}
	}
	if h.cache != nil && h.cache.Enabled() {
		out.Cache = "up"
		if err := h.cache.Ping(ctx); err != nil {
			out.Cache = "down"
		}
	}

	if out.Database != "up" {
		return response.Error(c, fiber.StatusServiceUnavailable, response.MessageServiceUnavailable, out)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}
