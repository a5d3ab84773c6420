// file: internal/router/router.go
package router

import (
	"net/http"

	"activityhub/internal/cache"
	"activityhub/internal/database"
	"activityhub/internal/handlers/api/v1/activities"
	"activityhub/internal/handlers/api/v1/audit"
	"activityhub/internal/handlers/api/v1/badges"
	"activityhub/internal/handlers/api/v1/notifications"
	"activityhub/internal/handlers/api/v1/scheduler"
	"activityhub/internal/handlers/api/v1/signups"
	"activityhub/internal/middleware"
	"activityhub/internal/response"
	"activityhub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dependencies carries everything the router needs to mount routes
type Dependencies struct {
	Services *services.Collection
	DB       *database.Manager
	Cache    cache.Cache
	Logger   *zap.Logger
}

// New configures all HTTP routes and returns the root handler
func New(deps *Dependencies) http.Handler {
	writer := response.NewWriter(deps.Logger)

	signupController := signups.NewSignupController(deps.Services.Signups, deps.Logger, writer)
	badgeController := badges.NewBadgeController(deps.Services.Badges, deps.Services.BadgeRules, deps.Logger, writer)
	notificationController := notifications.NewNotificationController(deps.Services.Notifications, deps.Logger, writer)
	activityController := activities.NewActivityController(deps.Services.Activities, deps.Services.Signups, deps.Logger, writer)
	schedulerController := scheduler.NewSchedulerController(deps.Services.Scheduler, deps.Logger, writer)
	auditController := audit.NewAuditController(deps.Services.Audit, deps.Logger, writer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))

	r.Get("/health", healthHandler(deps, writer))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/signups", signupController.Routes)
		r.Route("/badges", badgeController.Routes)
		r.Route("/activities", activityController.Routes)
		r.Route("/scheduler", schedulerController.Routes)
		r.Route("/audit-logs", auditController.Routes)

		r.Post("/notifications/dispatch", notificationController.Dispatch)
		r.Route("/participants/{participantID}", func(r chi.Router) {
			r.Get("/badges", badgeController.ListParticipantBadges)
			r.Route("/notifications", notificationController.ParticipantRoutes)
		})
	})

	return r
}

// healthHandler reports database and cache health
func healthHandler(deps *Dependencies, writer *response.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			"status":   "ok",
			"database": "ok",
			"cache":    "ok",
		}
		code := http.StatusOK

		if err := deps.DB.Health(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := deps.Cache.Health(r.Context()); err != nil {
			status["status"] = "degraded"
			status["cache"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		writer.Success(w, r, code, status)
	}
}
