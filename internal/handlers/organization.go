// internal/handlers/organization.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

type OrganizationHandler struct {
	organizationService *services.OrganizationService
}

func NewOrganizationHandler(organizationService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{organizationService: organizationService}
}

// GET /organizations
func (h *OrganizationHandler) GetOrganizations(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	orgs, total, err := h.organizationService.List(c.Request.Context(), actor, params, status)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(orgs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /organizations/:id
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	org, err := h.organizationService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, org)
}

// POST /organizations
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateOrganizationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	org, err := h.organizationService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyOrganizationCreated),
		"organization": org,
	})
}

// PATCH /organizations/:id
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
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

	var req services.UpdateOrganizationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	org, err := h.organizationService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyOrganizationUpdated),
		"organization": org,
	})
}

// POST /organizations/:id/suspend
func (h *OrganizationHandler) SuspendOrganization(c *gin.Context) {
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

	org, err := h.organizationService.Suspend(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyOrganizationUpdated),
		"organization": org,
	})
}
