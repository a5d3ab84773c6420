// ===============================
// FILE: internal/handlers/api/v1/signups/signups_controller.go
// ===============================

package signups

import (
	"encoding/json"
	"net/http"
	"strconv"

	"activityhub/internal/models"
	"activityhub/internal/response"
	"activityhub/internal/services"
	"activityhub/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignupController handles signup lifecycle API endpoints
type SignupController struct {
	signups  services.SignupService
	logger   *zap.Logger
	response *response.Writer
}

// NewSignupController creates a new signup controller
func NewSignupController(signups services.SignupService, logger *zap.Logger, writer *response.Writer) *SignupController {
	return &SignupController{
		signups:  signups,
		logger:   logger,
		response: writer,
	}
}

// Routes mounts the controller's routes
func (c *SignupController) Routes(r chi.Router) {
	r.Post("/", c.Submit)
	r.Get("/", c.List)
	r.Get("/{id}", c.Get)
	r.Post("/{id}/review", c.Review)
	r.Post("/bulk-review", c.BulkReview)
	r.Post("/{id}/checkin", c.Checkin)
	r.Post("/{id}/remind", c.SendReminder)
}

// Submit handles POST /api/v1/signups
func (c *SignupController) Submit(w http.ResponseWriter, r *http.Request) {
	var req services.SubmitSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		c.response.ValidationError(w, r, "invalid signup request", validation.Details(err))
		return
	}

	signup, err := c.signups.Submit(r.Context(), &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusCreated, signup)
}

// Get handles GET /api/v1/signups/{id}
func (c *SignupController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid signup id", nil)
		return
	}

	signup, err := c.signups.Get(r.Context(), id)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, signup)
}

// List handles GET /api/v1/signups
func (c *SignupController) List(w http.ResponseWriter, r *http.Request) {
	req, err := c.parseListRequest(r)
	if err != nil {
		c.response.ValidationError(w, r, err.Error(), nil)
		return
	}

	signups, err := c.signups.List(r.Context(), req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	total, err := c.signups.Count(r.Context(), req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}

	c.response.List(w, r, signups, &response.PaginationMeta{
		Limit:  req.Pagination.Limit,
		Offset: req.Pagination.Offset,
		Total:  total,
		Count:  len(signups),
	})
}

// Review handles POST /api/v1/signups/{id}/review
func (c *SignupController) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid signup id", nil)
		return
	}

	var req services.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	req.SignupID = id
	if err := validation.Struct(&req); err != nil {
		c.response.ValidationError(w, r, "invalid review request", validation.Details(err))
		return
	}

	signup, err := c.signups.Review(r.Context(), &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, signup)
}

// BulkReview handles POST /api/v1/signups/bulk-review
func (c *SignupController) BulkReview(w http.ResponseWriter, r *http.Request) {
	var req services.BulkReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		c.response.ValidationError(w, r, "invalid bulk review request", validation.Details(err))
		return
	}

	result, err := c.signups.BulkReview(r.Context(), &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, result)
}

// Checkin handles POST /api/v1/signups/{id}/checkin
func (c *SignupController) Checkin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid signup id", nil)
		return
	}

	var req services.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	req.SignupID = id

	signup, err := c.signups.Checkin(r.Context(), &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, signup)
}

// SendReminder handles POST /api/v1/signups/{id}/remind
func (c *SignupController) SendReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid signup id", nil)
		return
	}

	var req struct {
		Event models.NotificationEvent `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}

	signup, err := c.signups.SendReminder(r.Context(), id, req.Event)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusAccepted, signup)
}

func (c *SignupController) parseListRequest(r *http.Request) (*services.ListSignupsRequest, error) {
	query := r.URL.Query()
	req := &services.ListSignupsRequest{}

	if raw := query.Get("activity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, services.NewValidationError("invalid activity_id", err)
		}
		req.ActivityID = &id
	}
	if raw := query.Get("participant_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, services.NewValidationError("invalid participant_id", err)
		}
		req.ParticipantID = &id
	}
	for _, raw := range query["status"] {
		status := models.SignupStatus(raw)
		if !status.IsValid() {
			return nil, services.NewValidationError("invalid status filter", nil)
		}
		req.Statuses = append(req.Statuses, status)
	}
	if raw := query.Get("checkin_status"); raw != "" {
		status := models.CheckinStatus(raw)
		if !status.IsValid() {
			return nil, services.NewValidationError("invalid checkin_status filter", nil)
		}
		req.CheckinStatus = &status
	}
	req.Pagination = paginationFromQuery(r)
	return req, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func paginationFromQuery(r *http.Request) models.PaginationParams {
	params := models.PaginationParams{}
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
