package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"celltrade/internal/domain"
	"celltrade/internal/domain/cashregister"
	"celltrade/internal/infrastructure/http/v1/dto"
)

// SessionHandler handles cash register session endpoints.
type SessionHandler struct {
	*BaseHandler
	service *cashregister.Service
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *BaseHandler, service *cashregister.Service) *SessionHandler {
	return &SessionHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Open handles POST /register/session/open. Fails with a conflict when a
// session is already open: at most one open session system-wide.
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.Open(c.Request.Context(), req.OpeningBalance, h.UserEmail(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// Close handles POST /register/session/:id/close - computes the expected
// drawer balance from attributed cash rows and records the difference.
func (h *SessionHandler) Close(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CloseSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.Close(c.Request.Context(), sessionID, req.ActualBalance, h.UserEmail(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Current handles GET /register/session/current - the open session, or 404.
func (h *SessionHandler) Current(c *gin.Context) {
	s, err := h.service.Current(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Get handles GET /register/session/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// List handles GET /register/session.
func (h *SessionHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

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
