package handlers

import (
	"github.com/gin-gonic/gin"

	"celltrade/internal/core/apperror"
	"celltrade/internal/domain"
	"celltrade/internal/domain/inventory"
	"celltrade/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles read-only inventory item endpoints. Items are
// only mutated through purchase and sale documents.
type InventoryHandler struct {
	*BaseHandler
	items inventory.Repository
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, items inventory.Repository) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		items:       items,
	}
}

// Get handles GET /inventory/item/:id.
func (h *InventoryHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	item, err := h.items.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// GetByIMEI handles GET /inventory/item/imei/:imei.
func (h *InventoryHandler) GetByIMEI(c *gin.Context) {
	item, err := h.items.GetByIMEI(c.Request.Context(), c.Param("imei"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// List handles GET /inventory/item with filtering. Search matches IMEIs.
func (h *InventoryHandler) List(c *gin.Context) {
	filter := inventory.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.IncludeArchived = c.Query("includeArchived") == "true"

	if status := c.Query("status"); status != "" {
		s := inventory.Status(status)
		if s != inventory.StatusAvailable && s != inventory.StatusSold {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("value", status))
			return
		}
		filter.Status = &s
	}

	var ok bool
	if filter.ProductID, ok = h.ParseIDQuery(c, "productId"); !ok {
		return
	}
	if filter.SupplierID, ok = h.ParseIDQuery(c, "supplierId"); !ok {
		return
	}

	result, err := h.items.List(c.Request.Context(), filter)
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
