// ===============================
// FILE: internal/handlers/api/v1/badges/badges_controller.go
// ===============================

package badges

import (
	"encoding/json"
	"net/http"
	"strconv"

	"activityhub/internal/response"
	"activityhub/internal/services"
	"activityhub/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BadgeController handles badge catalogue, awards, and rule endpoints
type BadgeController struct {
	badges   services.BadgeService
	rules    services.BadgeRuleService
	logger   *zap.Logger
	response *response.Writer
}

// NewBadgeController creates a new badge controller
func NewBadgeController(badges services.BadgeService, rules services.BadgeRuleService, logger *zap.Logger, writer *response.Writer) *BadgeController {
	return &BadgeController{
		badges:   badges,
		rules:    rules,
		logger:   logger,
		response: writer,
	}
}

// Routes mounts the controller's routes
func (c *BadgeController) Routes(r chi.Router) {
	r.Get("/", c.ListBadges)
	r.Post("/award", c.Award)

	r.Route("/rules", func(r chi.Router) {
		r.Get("/", c.ListRules)
		r.Post("/", c.CreateRule)
		r.Put("/{id}", c.UpdateRule)
		r.Delete("/{id}", c.DeleteRule)
		r.Post("/{id}/preview", c.PreviewRule)
	})
}

// ListParticipantBadges handles GET /api/v1/participants/{participantID}/badges
func (c *BadgeController) ListParticipantBadges(w http.ResponseWriter, r *http.Request) {
	participantID, err := pathID(r, "participantID")
	if err != nil {
		c.response.ValidationError(w, r, "invalid participant id", nil)
		return
	}

	awards, err := c.badges.ListParticipantBadges(r.Context(), participantID)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, awards)
}

// ListBadges handles GET /api/v1/badges
func (c *BadgeController) ListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := c.badges.ListBadges(r.Context())
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, badges)
}

// Award handles POST /api/v1/badges/award
func (c *BadgeController) Award(w http.ResponseWriter, r *http.Request) {
	var req services.AwardBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		c.response.ValidationError(w, r, "invalid award request", validation.Details(err))
		return
	}

	award, err := c.badges.Award(r.Context(), &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusCreated, award)
}

// ListRules handles GET /api/v1/badges/rules
func (c *BadgeController) ListRules(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	rules, err := c.rules.ListRules(r.Context(), includeInactive)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, rules)
}

// CreateRule handles POST /api/v1/badges/rules
func (c *BadgeController) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req services.BadgeRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		c.response.ValidationError(w, r, "invalid rule request", validation.Details(err))
		return
	}

	rule, err := c.rules.CreateRule(r.Context(), &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/v1/badges/rules/{id}
func (c *BadgeController) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid rule id", nil)
		return
	}

	var req services.BadgeRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		c.response.ValidationError(w, r, "invalid rule request", validation.Details(err))
		return
	}

	rule, err := c.rules.UpdateRule(r.Context(), id, &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/v1/badges/rules/{id}
func (c *BadgeController) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid rule id", nil)
		return
	}

	if err := c.rules.DeleteRule(r.Context(), id); err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusNoContent, nil)
}

// PreviewRule handles POST /api/v1/badges/rules/{id}/preview
func (c *BadgeController) PreviewRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.response.ValidationError(w, r, "invalid rule id", nil)
		return
	}

	var req services.RulePreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.response.ValidationError(w, r, "invalid request body", nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		c.response.ValidationError(w, r, "invalid preview request", validation.Details(err))
		return
	}

	result, err := c.rules.Preview(r.Context(), id, &req)
	if err != nil {
		c.response.Error(w, r, err)
		return
	}
	c.response.Success(w, r, http.StatusOK, result)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
