package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"celltrade/internal/domain"
	"celltrade/internal/domain/documents/sale"
	"celltrade/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale document endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /document/sale.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.service.Create(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	lines, err := h.service.Lines(ctx, doc.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.SaleResponse{Sale: doc, Lines: lines})
}

// Get handles GET /document/sale/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.service.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	lines, err := h.service.Lines(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SaleResponse{Sale: doc, Lines: lines})
}

// Update handles PUT /document/sale/:id - full replacement of the sale state.
func (h *SaleHandler) Update(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.service.Edit(ctx, saleID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	lines, err := h.service.Lines(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SaleResponse{Sale: doc, Lines: lines})
}

// Delete handles DELETE /document/sale/:id - reverses item status and
// customer balance, then removes the document.
func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET /document/sale with filtering.
func (h *SaleHandler) List(c *gin.Context) {
	filter := sale.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeArchived = c.Query("includeArchived") == "true"

	var ok bool
	if filter.CustomerID, ok = h.ParseIDQuery(c, "customerId"); !ok {
		return
	}
	if filter.SessionID, ok = h.ParseIDQuery(c, "sessionId"); !ok {
		return
	}
	if filter.From, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
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
