// internal/handlers/billing.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

type BillingHandler struct {
	billingService *services.BillingService
	paymentService *services.PaymentService
	storageService *services.StorageService
	summaryService *services.SummaryService
}

func NewBillingHandler(billingService *services.BillingService, paymentService *services.PaymentService, storageService *services.StorageService, summaryService *services.SummaryService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		paymentService: paymentService,
		storageService: storageService,
		summaryService: summaryService,
	}
}

// GET /billing
func (h *BillingHandler) GetBillingRecords(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	filter := services.BillingRecordFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if orgIDStr := c.Query("organization_id"); orgIDStr != "" {
		if orgID, err := uuid.Parse(orgIDStr); err == nil {
			filter.OrganizationID = &orgID
		}
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if billingType := c.Query("billing_type"); billingType != "" {
		filter.BillingType = &billingType
	}
	if period := c.Query("period"); period != "" {
		filter.Period = &period
	}

	records, total, err := h.billingService.List(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(records, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /billing/:id
func (h *BillingHandler) GetBillingRecord(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.billingService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, record)
}

// POST /billing
func (h *BillingHandler) CreateBillingRecord(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateBillingRecordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.billingService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBillingCreated),
		"record":  record,
	})
}

// PATCH /billing/:id
func (h *BillingHandler) UpdateBillingRecord(c *gin.Context) {
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

	var req services.UpdateBillingRecordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.billingService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBillingUpdated),
		"record":  record,
	})
}

// POST /billing/:id/cancel
func (h *BillingHandler) CancelBillingRecord(c *gin.Context) {
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

	var body struct {
		Reason string `json:"reason"`
	}
	// Body is optional on cancellation.
	_ = c.ShouldBindJSON(&body)

	record, err := h.billingService.Cancel(c.Request.Context(), actor, id, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBillingCancelled),
		"record":  record,
	})
}

// GET /billing/summary/:organization_id
func (h *BillingHandler) GetOrganizationDebt(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	orgID, ok := utils.ParseUUIDParam(c, "organization_id")
	if !ok {
		return
	}

	summary, err := h.summaryService.OrganizationDebt(c.Request.Context(), actor, orgID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, summary)
}

// POST /billing/:id/payment-intent
func (h *BillingHandler) CreatePaymentIntent(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	req := services.CreatePaymentIntentRequest{
		BillingRecordID: id,
		Currency:        c.Query("currency"),
	}

	resp, err := h.paymentService.CreatePaymentIntent(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, resp)
}

// POST /billing/:id/confirm-payment
func (h *BillingHandler) ConfirmPayment(c *gin.Context) {
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

	var body struct {
		PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	}
	if !bindAndValidate(c, &body) {
		return
	}

	req := services.ConfirmPaymentRequest{
		PaymentIntentID: body.PaymentIntentID,
		BillingRecordID: id,
	}

	record, err := h.paymentService.ConfirmPayment(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBillingPaid),
		"record":  record,
	})
}

// POST /billing/:id/receipt
func (h *BillingHandler) UploadReceipt(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "missing file", err.Error())
		return
	}
	defer file.Close()

	result, err := h.storageService.AttachReceipt(c.Request.Context(), actor, id, file, header)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
