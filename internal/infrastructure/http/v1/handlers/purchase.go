package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"celltrade/internal/domain"
	"celltrade/internal/domain/documents/purchase"
	"celltrade/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles purchase invoice endpoints.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /document/purchase - receives items into inventory.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
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
	c.JSON(http.StatusCreated, dto.PurchaseResponse{Invoice: doc, Lines: lines})
}

// Get handles GET /document/purchase/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.service.GetByID(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	lines, err := h.service.Lines(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PurchaseResponse{Invoice: doc, Lines: lines})
}

// Update handles PUT /document/purchase/:id - diffs the replacement line
// set against inventory; sold items cannot be removed or repriced.
func (h *PurchaseHandler) Update(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.service.Edit(ctx, invoiceID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	lines, err := h.service.Lines(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PurchaseResponse{Invoice: doc, Lines: lines})
}

// Delete handles DELETE /document/purchase/:id - removes the received
// items and reverses supplier balance; blocked when any item is sold.
func (h *PurchaseHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET /document/purchase with filtering.
func (h *PurchaseHandler) List(c *gin.Context) {
	filter := purchase.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeArchived = c.Query("includeArchived") == "true"

	var ok bool
	if filter.SupplierID, ok = h.ParseIDQuery(c, "supplierId"); !ok {
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
