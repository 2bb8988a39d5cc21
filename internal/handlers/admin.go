// internal/handlers/admin.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GabrielVictorica/inmogestor-backend/internal/i18n"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

// AdminHandler groups the platform-operator endpoints: monthly closing,
// debt summaries and dashboard statistics.
type AdminHandler struct {
	closingService *services.ClosingService
	summaryService *services.SummaryService
}

func NewAdminHandler(closingService *services.ClosingService, summaryService *services.SummaryService) *AdminHandler {
	return &AdminHandler{
		closingService: closingService,
		summaryService: summaryService,
	}
}

// POST /admin/closing/run
func (h *AdminHandler) RunClosing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var body struct {
		Period string `json:"period" validate:"omitempty,period"`
	}
	// An empty body closes the previous month.
	_ = c.ShouldBindJSON(&body)
	if body.Period != "" {
		if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&body)); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
	}

	period := body.Period
	if period == "" {
		period = services.PreviousPeriod(time.Now())
	}

	result, err := h.closingService.RunClose(c.Request.Context(), period)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyClosingFinished),
		"result":  result,
	})
}

// GET /admin/closing/runs
func (h *AdminHandler) GetClosingRuns(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil {
			limit = v
		}
	}

	runs, err := h.closingService.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, runs)
}

// GET /admin/billing/summary
func (h *AdminHandler) GetDebtSummary(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	asOf := time.Now()
	if asOfStr := c.Query("as_of"); asOfStr != "" {
		if t, err := time.Parse("2006-01-02", asOfStr); err == nil {
			asOf = t
		}
	}

	summaries, err := h.summaryService.Summarize(c.Request.Context(), actor, asOf)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, summaries)
}

// GET /admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	stats, err := h.summaryService.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}
