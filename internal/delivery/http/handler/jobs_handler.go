package handler

import (
	"context"
	"strconv"
	"strings"

	"job-service/internal/delivery/http/dto"
	"job-service/internal/delivery/http/middleware"
	"job-service/internal/domain/job"
	"job-service/internal/pkg/response"
	"job-service/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type JobsHandler struct {
	jobs   usecase.JobUsecase
	search usecase.JobSearchUsecase
	logger *zap.Logger
}

func NewJobsHandler(jobs usecase.JobUsecase, search usecase.JobSearchUsecase, logger *zap.Logger) *JobsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobsHandler{jobs: jobs, search: search, logger: logger.Named("jobs_handler")}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/jobs")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/search", h.Search)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
	grp.Post("/:id/publish", h.Publish)
	grp.Post("/:id/pause", h.Pause)
	grp.Post("/:id/close", h.Close)
	grp.Post("/:id/apply", h.Apply)

	r.Get("/companies/:id/jobs/count", h.CountCompanyJobs)
}

func (h *JobsHandler) Create(c fiber.Ctx) error {
	in, required, preferred, err := h.bindJob(c)
	if err != nil {
		return err
	}

	created, err := h.jobs.CreateJob(c.Context(), in, required, preferred)
	if err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusCreated, "job created", dto.NewJobResponse(created))
}

func (h *JobsHandler) Update(c fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	in, required, preferred, err := h.bindJob(c)
	if err != nil {
		return err
	}

	updated, err := h.jobs.UpdateJob(c.Context(), id, in, required, preferred)
	if err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, "job updated", dto.NewJobResponse(updated))
}

func (h *JobsHandler) Get(c fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	incrementView, err := parseQueryBool(c, "increment_view")
	if err != nil {
		return err
	}

	j, err := h.jobs.GetJob(c.Context(), id, incrementView)
	if err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(j))
}

func (h *JobsHandler) Delete(c fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.jobs.DeleteJob(c.Context(), id); err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, "job deleted", nil)
}

func (h *JobsHandler) Publish(c fiber.Ctx) error {
	return h.transition(c, h.jobs.PublishJob)
}

func (h *JobsHandler) Pause(c fiber.Ctx) error {
	return h.transition(c, h.jobs.PauseJob)
}

func (h *JobsHandler) Close(c fiber.Ctx) error {
	return h.transition(c, h.jobs.CloseJob)
}

func (h *JobsHandler) Apply(c fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.jobs.IncrementApplyCount(c.Context(), id); err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, "application recorded", nil)
}

// List serves the company listing when company_id is given and the public
// active listing otherwise.
func (h *JobsHandler) List(c fiber.Ctx) error {
	page, size, err := parsePaging(c)
	if err != nil {
		return err
	}

	if raw := strings.TrimSpace(c.Query("company_id")); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "invalid company_id", nil, err)
		}
		out, err := h.search.ListCompanyJobs(c.Context(), companyID, page, size)
		if err != nil {
			return middleware.FromError(err)
		}
		return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobPage(out))
	}

	out, err := h.search.ListActiveJobs(c.Context(), page, size)
	if err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobPage(out))
}

func (h *JobsHandler) Search(c fiber.Ctx) error {
	page, size, err := parsePaging(c)
	if err != nil {
		return err
	}

	if skills := parseSkillsQuery(c.Query("skills")); len(skills) > 0 {
		out, err := h.search.SearchBySkills(c.Context(), skills, page, size)
		if err != nil {
			return middleware.FromError(err)
		}
		return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobPage(out))
	}

	minSalary, err := parseQueryIntOptional(c, "min_salary")
	if err != nil {
		return err
	}
	maxSalary, err := parseQueryIntOptional(c, "max_salary")
	if err != nil {
		return err
	}

	params := usecase.SearchParams{
		Keyword:   c.Query("keyword"),
		Location:  c.Query("location"),
		MinSalary: minSalary,
		MaxSalary: maxSalary,
		Page:      page,
		Size:      size,
	}
	if raw := c.Query("job_type"); raw != "" {
		params.JobType, _ = job.ParseType(raw)
		h.warnUnknown("job_type", raw, params.JobType != "")
	}
	if raw := c.Query("experience_level"); raw != "" {
		params.ExperienceLevel, _ = job.ParseExperienceLevel(raw)
		h.warnUnknown("experience_level", raw, params.ExperienceLevel != "")
	}
	if raw := c.Query("remote_type"); raw != "" {
		params.RemoteType, _ = job.ParseRemoteType(raw)
		h.warnUnknown("remote_type", raw, params.RemoteType != "")
	}

	out, err := h.search.SearchJobs(c.Context(), params)
	if err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobPage(out))
}

func (h *JobsHandler) CountCompanyJobs(c fiber.Ctx) error {
	companyID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var status *job.Status
	if raw := c.Query("status"); raw != "" {
		st, ok := job.ParseStatus(raw)
		h.warnUnknown("status", raw, ok)
		if ok {
			status = &st
		}
	}

	n, err := h.jobs.CountCompanyJobs(c.Context(), companyID, status)
	if err != nil {
		return middleware.FromError(err)
	}

	out := dto.JobCountResponse{CompanyID: companyID, Count: n}
	if status != nil {
		s := string(*status)
		out.Status = &s
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *JobsHandler) transition(c fiber.Ctx, apply func(ctx context.Context, id uuid.UUID) (job.Job, error)) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	j, err := apply(c.Context(), id)
	if err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(j))
}

func (h *JobsHandler) bindJob(c fiber.Ctx) (job.Content, []string, []string, error) {
	var req dto.JobRequest
	if err := c.Bind().Body(&req); err != nil {
		return job.Content{}, nil, nil, middleware.NewAppError(fiber.StatusBadRequest, response.MessageBadRequest, nil, err)
	}

	in, unknown := req.Content()
	if len(unknown) > 0 {
		h.logger.Warn("unknown enum values ignored", zap.Strings("fields", unknown))
	}
	return in, req.RequiredSkills, req.PreferredSkills, nil
}

func (h *JobsHandler) warnUnknown(field, value string, ok bool) {
	if ok {
		return
	}
	h.logger.Warn("unknown enum value ignored", zap.String("field", field), zap.String("value", value))
}

func parseUUIDParam(c fiber.Ctx, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(key))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "invalid "+key, nil, err)
	}
	return id, nil
}

func parsePaging(c fiber.Ctx) (int, int, error) {
	page, err := parseQueryIntStrict(c, "page", 0)
	if err != nil {
		return 0, 0, err
	}
	size, err := parseQueryIntStrict(c, "size", 0)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, middleware.NewAppError(fiber.StatusBadRequest, "invalid "+key, nil, err)
	}
	return v, nil
}

func parseQueryIntOptional(c fiber.Ctx, key string) (*int, error) {
	if c.Query(key) == "" {
		return nil, nil
	}
	v, err := parseQueryIntStrict(c, key, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseQueryBool(c fiber.Ctx, key string) (bool, error) {
	s := c.Query(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, middleware.NewAppError(fiber.StatusBadRequest, "invalid "+key, nil, err)
	}
	return v, nil
}

func parseSkillsQuery(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
