// internal/handlers/transaction.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
}

func NewTransactionHandler(transactionService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// GET /transactions
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	filter := services.TransactionFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if orgIDStr := c.Query("organization_id"); orgIDStr != "" {
		if orgID, err := uuid.Parse(orgIDStr); err == nil {
			filter.OrganizationID = &orgID
		}
	}
	if agentIDStr := c.Query("agent_id"); agentIDStr != "" {
		if agentID, err := uuid.Parse(agentIDStr); err == nil {
			filter.AgentID = &agentID
		}
	}
	if propertyIDStr := c.Query("property_id"); propertyIDStr != "" {
		if propertyID, err := uuid.Parse(propertyIDStr); err == nil {
			filter.PropertyID = &propertyID
		}
	}
	if yearStr := c.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filter.Year = &year
		}
	}
	if monthStr := c.Query("month"); monthStr != "" {
		if month, err := strconv.Atoi(monthStr); err == nil && month >= 1 && month <= 12 {
			filter.Month = &month
		}
	}

	transactions, total, err := h.transactionService.List(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	transaction, err := h.transactionService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, transaction)
}

// POST /transactions
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	transaction, err := h.transactionService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyTransactionCreated),
		"transaction": transaction,
	})
}

// PATCH /transactions/:id
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
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

	var req services.AmendTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	transaction, err := h.transactionService.Amend(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyTransactionUpdated),
		"transaction": transaction,
	})
}

// DELETE /transactions/:id
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
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

	if err := h.transactionService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyTransactionDeleted),
	})
}
