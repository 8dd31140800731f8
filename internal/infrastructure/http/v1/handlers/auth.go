package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/security"
	"celltrade/internal/domain/auth"
	"celltrade/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{Token: token, User: user})
}

// Register handles POST /auth/register. Admin only: there is no open
// sign-up, staff accounts are provisioned.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	scope := security.GetScope(ctx)
	if scope == nil || !scope.IsAdmin {
		h.Error(c, apperror.NewForbidden("only admins can register users"))
		return
	}

	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(ctx, req.Email, req.Password, req.Name, security.Role(req.Role))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Me handles GET /auth/me - the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	scope := security.GetScope(ctx)
	if scope == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}

	userID, err := id.Parse(scope.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid token subject"))
		return
	}

	user, err := h.service.GetUserByID(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, user)
}
