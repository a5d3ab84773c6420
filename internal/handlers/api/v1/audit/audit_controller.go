// ===============================
// FILE: internal/handlers/api/v1/audit/audit_controller.go
// ===============================

package audit

import (
	"net/http"
	"strconv"

	"activityhub/internal/models"
	"activityhub/internal/response"
	"activityhub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuditController exposes the read side of the audit trail
type AuditController struct {
	audit    services.AuditService
	logger   *zap.Logger
	response *response.Writer
}

// NewAuditController creates a new audit controller
func NewAuditController(audit services.AuditService, logger *zap.Logger, writer *response.Writer) *AuditController {
	return &AuditController{
		audit:    audit,
		logger:   logger,
		response: writer,
	}
}

// Routes mounts the controller's routes
func (c *AuditController) Routes(r chi.Router) {
	r.Get("/", c.List)
}

// List handles GET /api/v1/audit-logs
func (c *AuditController) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &services.ListAuditRequest{}

	if raw := query.Get("action"); raw != "" {
		action := models.AuditAction(raw)
		req.Action = &action
	}
	if raw := query.Get("entity_type"); raw != "" {
		entity := models.AuditEntity(raw)
		req.EntityType = &entity
	}
	if raw := query.Get("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.response.ValidationError(w, r, "invalid entity_id", nil)
			return
		}
		req.EntityID = &id
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			req.Pagination.Limit = limit
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			req.Pagination.Offset = offset
		}
	}
	req.Pagination.Normalize()

	logs, err := c.audit.List(r.Context(), req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.List(w, r, logs, &response.PaginationMeta{
		Limit:  req.Pagination.Limit,
		Offset: req.Pagination.Offset,
		Count:  len(logs),
	})
}
