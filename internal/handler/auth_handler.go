package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/middleware"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
)

// AuthHandler exposes the caller's token. Tokens are issued out of band.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Me godoc
// GET /api/v1/admin/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"operator":    claims.Operator(),
		"permissions": claims.Permissions,
		"expires_at":  claims.ExpiresAt,
	})
}

// Logout godoc
// POST /api/v1/admin/logout
// Revokes the presented token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.RevokeToken(c.Request.Context(), claims); err != nil {
		failWith(c, h.log, err)
		return
	}

	h.log.Info().Int("operator_id", claims.OperatorID).Msg("Token revoked")
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}
