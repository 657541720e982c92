package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"job-service/internal/config"
	"job-service/internal/database"
	"job-service/internal/database/migration"
	dbpostgres "job-service/internal/database/postgres"
	"job-service/internal/database/seeder"
	"job-service/internal/infrastructure/cache"
	"job-service/internal/infrastructure/events"
	"job-service/internal/repository"
	"job-service/internal/usecase"

	"go.uber.org/zap"
)

type Container struct {
	Config    config.Config
	Logger    *zap.Logger
	DB        database.DB
	Cache     *cache.Redis
	Publisher events.Publisher

	Skills *usecase.SkillCatalog
	Jobs   *usecase.Jobs
	Search *usecase.JobSearch
	Reaper *usecase.ExpiryReaper
}

// NewContainer connects to every backing service, applies migrations and
// wires the use cases. Redis and NATS are optional; Postgres is not.
func NewContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, DB: db}

	if err := c.prepareSchema(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Cache = cache.NewRedis(cfg.Redis, logger)
	c.Publisher, err = events.NewPublisher(logger, cfg.NATS)
	if err != nil {
		// lifecycle events are best effort
		logger.Warn("nats unavailable, events disabled", zap.Error(err))
		c.Publisher = events.Noop{}
	}

	c.wire()
	return c, nil
}

func (c *Container) prepareSchema() error {
	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer migCancel()

	r := migration.NewRunner(c.Config.App.MigrationsDir, c.Logger)
	if err := r.Run(migCtx, c.DB.SQLDB()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if !c.Config.App.SeedOnStart {
		return nil
	}
	seedCtx, seedCancel := context.WithTimeout(context.Background(), time.Minute)
	defer seedCancel()

	s := seeder.Runner{Seeders: seeder.Defaults(), Logger: c.Logger}
	if err := s.Run(seedCtx, c.DB); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

func (c *Container) wire() {
	jobRepo := repository.NewPostgresJobRepository(c.DB)
	tagRepo := repository.NewPostgresSkillTagRepository(c.DB)

	var searchCache usecase.SearchCache
	var locker usecase.Locker
	if c.Cache.Enabled() {
		searchCache = c.Cache
		locker = c.Cache
	}

	c.Skills = usecase.NewSkillCatalog(tagRepo, searchCache, nil, c.Logger)
	c.Jobs = usecase.NewJobs(jobRepo, c.Skills, searchCache, c.Publisher, nil, c.Logger)
	c.Search = usecase.NewJobSearch(jobRepo, tagRepo, searchCache, nil, c.Logger)
	c.Reaper = usecase.NewExpiryReaper(jobRepo, searchCache, locker, c.Publisher, nil, c.Logger, usecase.ExpiryOptions{
		Schedule: c.Config.Expiry.Schedule,
		LockTTL:  c.Config.Expiry.LockTTL,
	})
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
