package handler

import (
	"time"

	"invoicegen/internal/domain"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// BatchPublishedResponse is returned when a batch archive was uploaded.
type BatchPublishedResponse struct {
	BatchID   string            `json:"batch_id" example:"5f0c6a7e-2f5b-4a8e-9a51-1c2d3e4f5a6b"`
	URL       string            `json:"url" example:"https://bucket.s3.amazonaws.com/batches/5f0c.../invoices.zip?X-Amz-Signature=..."`
	ExpiresAt time.Time         `json:"expires_at"`
	Succeeded int               `json:"succeeded" example:"41"`
	Failed    int               `json:"failed" example:"1"`
	Notified  bool              `json:"notified" example:"true"`
	Errors    []domain.RowError `json:"errors"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"font not available"`
}

// --- Generic Response Wrappers ---

// Response is the generic success envelope.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody is the generic error envelope.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
