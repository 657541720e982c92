package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"job-service/internal/config"
	"job-service/internal/delivery/http/handler"
	"job-service/internal/delivery/http/middleware"
	"job-service/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap builds the container and HTTP app and starts the expiry
// schedule. The returned cleanup stops the schedule before closing
// connections.
func Bootstrap(cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := c.Reaper.Start(); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("start expiry reaper: %w", err)
	}

	app := New(c)
	cleanup := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		c.Reaper.Stop(ctx)
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	routes.NewRegistry(
		handler.NewHealthHandler(c.DB, c.Cache),
		handler.NewJobsHandler(c.Jobs, c.Search, c.Logger),
		handler.NewSkillHandler(c.Skills),
	).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
