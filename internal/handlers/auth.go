// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

type AuthHandler struct {
	profileService *services.ProfileService
}

func NewAuthHandler(profileService *services.ProfileService) *AuthHandler {
	return &AuthHandler{profileService: profileService}
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.profileService.Login(c.Request.Context(), &req)
	if err != nil {
		// Credential failures always read the same to the caller.
		if services.IsCode(err, services.CodeForbidden) {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
			return
		}
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"token":   resp.Token,
		"profile": resp.Profile,
	})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), actor, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, profile)
}
