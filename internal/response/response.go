// file: internal/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"activityhub/internal/middleware"
	"activityhub/internal/services"

	"go.uber.org/zap"
)

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse is the envelope every JSON endpoint returns
type APIResponse struct {
	Success   bool            `json:"success"`
	Data      interface{}     `json:"data,omitempty"`
	Error     *ErrorDetail    `json:"error,omitempty"`
	Meta      *PaginationMeta `json:"meta,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// ErrorDetail represents error information in API responses
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationMeta carries list envelope metadata
type PaginationMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
	Count  int `json:"count"`
}

// Writer renders API responses consistently
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a response writer
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Success writes a success envelope with the given status
func (w *Writer) Success(rw http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.write(rw, r, status, &APIResponse{
		Success: true,
		Data:    data,
	})
}

// List writes a success envelope with pagination metadata
func (w *Writer) List(rw http.ResponseWriter, r *http.Request, data interface{}, meta *PaginationMeta) {
	w.write(rw, r, http.StatusOK, &APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error maps a service error to its HTTP representation. Internal
// details stay in the log; clients get the structured taxonomy only.
func (w *Writer) Error(rw http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		w.logger.Error("Unclassified handler error",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		svcErr = services.NewInternalError("an unexpected error occurred")
	}

	if svcErr.GetStatusCode() >= 500 {
		w.logger.Error("Request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("type", svcErr.Type),
			zap.Error(err),
		)
	}

	w.write(rw, r, svcErr.GetStatusCode(), &APIResponse{
		Success: false,
		Error: &ErrorDetail{
			Type:    svcErr.Type,
			Message: svcErr.Message,
			Code:    svcErr.Code,
			Details: svcErr.Details,
		},
	})
}

// ValidationError writes a 400 with field-level details
func (w *Writer) ValidationError(rw http.ResponseWriter, r *http.Request, message string, details map[string]interface{}) {
	w.write(rw, r, http.StatusBadRequest, &APIResponse{
		Success: false,
		Error: &ErrorDetail{
			Type:    "VALIDATION_ERROR",
			Message: message,
			Details: details,
		},
	})
}

func (w *Writer) write(rw http.ResponseWriter, r *http.Request, status int, body *APIResponse) {
	body.RequestID = middleware.GetRequestID(r.Context())
	body.Timestamp = time.Now().Unix()

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(body); err != nil {
		w.logger.Error("Failed to encode response",
			zap.String("request_id", body.RequestID),
			zap.Error(err),
		)
	}
}
