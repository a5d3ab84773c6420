// ===============================
// FILE: internal/handlers/api/v1/notifications/notifications_controller.go
// ===============================

package notifications

import (
	"encoding/json"
	"net/http"
	"strconv"

	"activityhub/internal/models"
	"activityhub/internal/response"
	"activityhub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NotificationController handles the participant notification feed and
// the admin dispatch trigger.
type NotificationController struct {
	notifications services.NotificationService
	logger        *zap.Logger
	response      *response.Writer
}

// NewNotificationController creates a new notification controller
func NewNotificationController(notifications services.NotificationService, logger *zap.Logger, writer *response.Writer) *NotificationController {
	return &NotificationController{
		notifications: notifications,
		logger:        logger,
		response:      writer,
	}
}

// ParticipantRoutes mounts the participant-scoped feed routes
func (c *NotificationController) ParticipantRoutes(r chi.Router) {
	r.Get("/", c.List)
	r.Post("/mark-read", c.MarkAllRead)
	r.Delete("/{id}", c.Delete)
	r.Post("/delete-batch", c.DeleteBatch)
	r.Delete("/", c.DeleteAll)
}

// Dispatch handles POST /api/v1/notifications/dispatch
func (c *NotificationController) Dispatch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.response.ValidationError(w, r, "invalid limit", nil)
			return
		}
		limit = parsed
	}

	processed, err := c.notifications.DispatchPending(r.Context(), limit)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, map[string]int{"processed": processed})
}

// List handles GET /api/v1/participants/{participantID}/notifications
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	participantID, err := pathID(r, "participantID")
	if err != nil {
		c.response.ValidationError(w, r, "invalid participant id", nil)
		return
	}

	params := paginationFromQuery(r)
	logs, err := c.notifications.List(r.Context(), participantID, params)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.List(w, r, logs, &response.PaginationMeta{
		Limit:  params.Limit,
		Offset: params.Offset,
		Count:  len(logs),
	})
}

// MarkAllRead handles POST /api/v1/participants/{participantID}/notifications/mark-read
func (c *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	participantID, err := pathID(r, "participantID")
	if err != nil {
		c.response.ValidationError(w, r, "invalid participant id", nil)
		return
	}

	count, err := c.notifications.MarkAllRead(r.Context(), participantID)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, map[string]int{"marked": count})
}

// Delete handles DELETE /api/v1/participants/{participantID}/notifications/{id}
func (c *NotificationController) Delete(w http.ResponseWriter, r *http.Request) {
	participantID, err := pathID(r, "participantID")
	if err != nil {
		c.response.ValidationError(w, r, "invalid participant id", nil)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid notification id", nil)
		return
	}

	if err := c.notifications.Delete(r.Context(), id, participantID); err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusNoContent, nil)
}

// DeleteBatch handles POST /api/v1/participants/{participantID}/notifications/delete-batch
func (c *NotificationController) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	participantID, err := pathID(r, "participantID")
	if err != nil {
		c.response.ValidationError(w, r, "invalid participant id", nil)
		return
	}

	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	if len(req.IDs) == 0 {
		c.response.ValidationError(w, r, "ids must not be empty", nil)
		return
	}

	count, err := c.notifications.DeleteBatch(r.Context(), req.IDs, participantID)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, map[string]int{"deleted": count})
}

// DeleteAll handles DELETE /api/v1/participants/{participantID}/notifications
func (c *NotificationController) DeleteAll(w http.ResponseWriter, r *http.Request) {
	participantID, err := pathID(r, "participantID")
	if err != nil {
		c.response.ValidationError(w, r, "invalid participant id", nil)
		return
	}

	count, err := c.notifications.DeleteAll(r.Context(), participantID)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, map[string]int{"deleted": count})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func paginationFromQuery(r *http.Request) (params models.PaginationParams) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			params.Offset = offset
		}
	}
	params.Normalize()
	return params
}
