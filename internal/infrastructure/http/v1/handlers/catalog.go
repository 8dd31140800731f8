package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"celltrade/internal/core/entity"
	"celltrade/internal/domain"
	"celltrade/internal/infrastructure/http/v1/dto"
)

// CatalogHandlerConfig wires one catalog entity type into the generic
// handler via DTO mappers.
type CatalogHandlerConfig[T entity.Validatable, CreateDTO any, UpdateDTO any] struct {
	Service *domain.CatalogService[T]

	// EntityName for error messages
	EntityName string

	// MapCreateDTO converts a create request into a new entity.
	MapCreateDTO func(req CreateDTO) T

	// MapUpdateDTO overlays an update request onto the loaded entity.
	MapUpdateDTO func(req UpdateDTO, existing T)
}

// CatalogHandler provides CRUD endpoints shared by all catalog entities.
type CatalogHandler[T entity.Validatable, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO]
}

// NewCatalogHandler creates a generic catalog handler.
func NewCatalogHandler[T entity.Validatable, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO],
) *CatalogHandler[T, CreateDTO, UpdateDTO] {
	return &CatalogHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler: base,
		cfg:         cfg,
	}
}

// List handles GET / with search, pagination, and ordering.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeArchived = c.Query("includeArchived") == "true"

	result, err := h.cfg.Service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /:id.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	e, err := h.cfg.Service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// GetByCode handles GET /code/:code.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) GetByCode(c *gin.Context) {
	e, err := h.cfg.Service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Create handles POST /.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	e := h.cfg.MapCreateDTO(req)
	if err := h.cfg.Service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// Update handles PUT /:id with optimistic locking via the request version.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	e, err := h.cfg.Service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.cfg.MapUpdateDTO(req, e)
	if err := h.cfg.Service.Update(ctx, e); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Archive handles DELETE /:id - soft delete, reversible via Restore.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Archive(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.cfg.Service.Archive(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Restore handles POST /:id/restore.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Restore(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.cfg.Service.Restore(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, h.cfg.EntityName+" restored")
}
