package handlers

import (
	"github.com/gin-gonic/gin"

	"celltrade/internal/domain/catalogs/counterparty"
	"celltrade/internal/infrastructure/http/v1/dto"
)

// CounterpartyHandler handles counterparty catalog endpoints, adding the
// hard-delete cascade on top of the generic CRUD.
type CounterpartyHandler struct {
	*CatalogHandler[*counterparty.Counterparty, dto.CreateCounterpartyRequest, dto.UpdateCounterpartyRequest]
	service *counterparty.Service
}

// NewCounterpartyHandler creates a new counterparty handler.
func NewCounterpartyHandler(base *BaseHandler, service *counterparty.Service) *CounterpartyHandler {
	cfg := CatalogHandlerConfig[*counterparty.Counterparty, dto.CreateCounterpartyRequest, dto.UpdateCounterpartyRequest]{
		Service:    service.CatalogService,
		EntityName: "counterparty",
		MapCreateDTO: func(req dto.CreateCounterpartyRequest) *counterparty.Counterparty {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateCounterpartyRequest, existing *counterparty.Counterparty) {
			req.ApplyTo(existing)
		},
	}

	return &CounterpartyHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// HardDelete handles DELETE /:id/hard - irreversible removal with cascade:
// payments are purged, historical documents are detached.
func (h *CounterpartyHandler) HardDelete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.HardDelete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
