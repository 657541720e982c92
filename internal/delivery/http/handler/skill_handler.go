package handler

import (
	"strings"

	"job-service/internal/delivery/http/dto"
	"job-service/internal/delivery/http/middleware"
	"job-service/internal/pkg/response"
	"job-service/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SkillHandler struct {
	uc usecase.SkillCatalogUsecase
}

func NewSkillHandler(uc usecase.SkillCatalogUsecase) *SkillHandler {
	return &SkillHandler{uc: uc}
}

func (h *SkillHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/skills")
	grp.Get("/", h.List)
	grp.Get("/categories", h.Categories)
	grp.Get("/popular", h.Popular)
}

// List filters by category when given, then by name query, and falls back
// to the whole catalog.
func (h *SkillHandler) List(c fiber.Ctx) error {
	category := strings.TrimSpace(c.Query("category"))
	query := strings.TrimSpace(c.Query("query"))

	var res []dto.SkillTagResponse
	switch {
	case category != "":
		items, err := h.uc.ListByCategory(c.Context(), category)
		if err != nil {
			return middleware.FromError(err)
		}
		res = dto.NewSkillTagResponses(items)
	case query != "":
		items, err := h.uc.Search(c.Context(), query)
		if err != nil {
			return middleware.FromError(err)
		}
		res = dto.NewSkillTagResponses(items)
	default:
		items, err := h.uc.ListAll(c.Context())
		if err != nil {
			return middleware.FromError(err)
		}
		res = dto.NewSkillTagResponses(items)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *SkillHandler) Categories(c fiber.Ctx) error {
	items, err := h.uc.ListCategories(c.Context())
	if err != nil {
		return middleware.FromError(err)
	}
	if items == nil {
		items = []string{}
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, items)
}

func (h *SkillHandler) Popular(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return err
	}
	items, err := h.uc.ListPopular(c.Context(), limit)
	if err != nil {
		return middleware.FromError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewPopularSkillResponses(items))
}
