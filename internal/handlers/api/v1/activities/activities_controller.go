// ===============================
// FILE: internal/handlers/api/v1/activities/activities_controller.go
// ===============================

package activities

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"activityhub/internal/response"
	"activityhub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ActivityController handles activity lookups, stats, and check-in
// token management.
type ActivityController struct {
	activities services.ActivityService
	signups    services.SignupService
	logger     *zap.Logger
	response   *response.Writer
}

// NewActivityController creates a new activity controller
func NewActivityController(activities services.ActivityService, signups services.SignupService, logger *zap.Logger, writer *response.Writer) *ActivityController {
	return &ActivityController{
		activities: activities,
		signups:    signups,
		logger:     logger,
		response:   writer,
	}
}

// Routes mounts the controller's routes
func (c *ActivityController) Routes(r chi.Router) {
	r.Get("/{id}", c.Get)
	r.Get("/{id}/stats", c.Stats)
	r.Post("/{id}/checkin-token", c.RotateCheckinToken)
	r.Delete("/{id}/checkin-token", c.CloseCheckin)
}

// Get handles GET /api/v1/activities/{id}
func (c *ActivityController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.response.ValidationError(w, r, "invalid activity id", nil)
		return
	}

	activity, err := c.activities.Get(r.Context(), id)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, activity)
}

// Stats handles GET /api/v1/activities/{id}/stats
func (c *ActivityController) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.response.ValidationError(w, r, "invalid activity id", nil)
		return
	}

	stats, err := c.signups.ActivityStats(r.Context(), id)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, stats)
}

// RotateCheckinToken handles POST /api/v1/activities/{id}/checkin-token
func (c *ActivityController) RotateCheckinToken(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.response.ValidationError(w, r, "invalid activity id", nil)
		return
	}

	var body struct {
		ActorAdminID *int64 `json:"actor_admin_id,omitempty"`
		TTLSeconds   int    `json:"ttl_seconds,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			c.response.ValidationError(w, r, "invalid request body", nil)
			return
		}
	}

	result, err := c.activities.RotateCheckinToken(r.Context(), &services.RotateTokenRequest{
		ActivityID:   id,
		ActorAdminID: body.ActorAdminID,
		TTL:          time.Duration(body.TTLSeconds) * time.Second,
	})
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusCreated, result)
}

// CloseCheckin handles DELETE /api/v1/activities/{id}/checkin-token
func (c *ActivityController) CloseCheckin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.response.ValidationError(w, r, "invalid activity id", nil)
		return
	}

	var actorAdminID *int64
	if raw := r.URL.Query().Get("actor_admin_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.response.ValidationError(w, r, "invalid actor_admin_id", nil)
			return
		}
		actorAdminID = &parsed
	}

	if err := c.activities.CloseCheckin(r.Context(), id, actorAdminID); err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusNoContent, nil)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
