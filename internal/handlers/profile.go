// internal/handlers/profile.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GET /profiles
func (h *ProfileHandler) GetProfiles(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	var organizationID *uuid.UUID
	if orgIDStr := c.Query("organization_id"); orgIDStr != "" {
		if orgID, err := uuid.Parse(orgIDStr); err == nil {
			organizationID = &orgID
		}
	}

	profiles, total, err := h.profileService.List(c.Request.Context(), actor, params, organizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(profiles, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /profiles/:id
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, profile)
}

// POST /profiles
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profileService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProfileCreated),
		"profile": profile,
	})
}

// PATCH /profiles/:id
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProfileUpdated),
		"profile": profile,
	})
}
