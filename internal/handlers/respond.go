// internal/handlers/respond.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

// respondError translates a service error into the proper HTTP response.
func respondError(c *gin.Context, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	switch appErr.Code {
	case services.CodeValidation:
		utils.BadRequestResponse(c, appErr.Message, nil)
	case services.CodeForbidden:
		utils.ForbiddenResponse(c, appErr.Message)
	case services.CodeNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", appErr.Message, nil)
	case services.CodeConflict:
		utils.ConflictResponse(c, appErr.Message)
	case services.CodeUnavailable:
		utils.UnavailableResponse(c, appErr.Message)
	default:
		utils.InternalErrorResponse(c, appErr.Message)
	}
}

// bindAndValidate binds the JSON body and runs struct validation, writing
// the error response itself when either step fails.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}
