package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"invoicegen/internal/domain"
	"invoicegen/internal/logger"
	"invoicegen/internal/service"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	RespondErrorDetails(c, status, code, msg, nil)
}

// RespondErrorDetails sends an error response carrying structured details.
func RespondErrorDetails(c *gin.Context, status int, code, msg string, details interface{}) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg, Details: details},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invoice data is invalid"
	case errors.Is(err, domain.ErrMissingFont):
		return http.StatusUnprocessableEntity, "MISSING_FONT", "no font can display the invoice text"
	case errors.Is(err, domain.ErrLayoutOverflow):
		return http.StatusUnprocessableEntity, "LAYOUT_OVERFLOW", "invoice content does not fit on a page"
	case errors.Is(err, domain.ErrInvalidAsset):
		return http.StatusUnprocessableEntity, "INVALID_ASSET", "a font or logo asset could not be decoded"
	case errors.Is(err, domain.ErrNoDocuments):
		return http.StatusUnprocessableEntity, "NO_DOCUMENTS", "no invoice in the batch could be generated"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrMissingHeader):
		return http.StatusBadRequest, "MISSING_HEADER", "input is missing its header row"
	case errors.Is(err, domain.ErrInvalidHeader):
		return http.StatusBadRequest, "INVALID_HEADER", err.Error()
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest, "EMPTY_INPUT", "input contains no data rows"
	case errors.Is(err, domain.ErrPublishDisabled):
		return http.StatusBadRequest, "PUBLISH_DISABLED", "archive publishing is not enabled"
	case errors.Is(err, domain.ErrPublishFailed):
		return http.StatusBadGateway, "PUBLISH_FAILED", "archive upload to storage failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// errorDetails extracts the structured part of err, if any.
func errorDetails(err error) interface{} {
	var fe *domain.FieldErrors
	if errors.As(err, &fe) {
		return fe.Fields
	}
	var nd *service.NoDocumentsError
	if errors.As(err, &nd) {
		return nd.Summary
	}
	var re *domain.RenderError
	if errors.As(err, &re) {
		return gin.H{"kind": re.Kind, "detail": re.Detail}
	}
	return nil
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("request_id", c.GetString("request_id")), zap.Error(err))
	}
	RespondErrorDetails(c, status, code, msg, errorDetails(err))
}
