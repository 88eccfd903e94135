package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/auth"
	"github.com/nimbus-console/nimbus-console/internal/companies"
	"github.com/nimbus-console/nimbus-console/internal/deletion"
	"github.com/nimbus-console/nimbus-console/internal/export"
	"github.com/nimbus-console/nimbus-console/internal/i18n"
	"github.com/nimbus-console/nimbus-console/internal/observability"
	"github.com/nimbus-console/nimbus-console/internal/prefs"
	"github.com/nimbus-console/nimbus-console/internal/profile"
	"github.com/nimbus-console/nimbus-console/internal/provision"
	"github.com/nimbus-console/nimbus-console/internal/reset"
	"github.com/nimbus-console/nimbus-console/internal/shared"
	"github.com/nimbus-console/nimbus-console/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler      *auth.Handler
	ResetHandler     *reset.Handler
	ProfileHandler   *profile.Handler
	DeletionHandler  *deletion.Handler
	ExportHandler    *export.Handler
	ActivityHandler  *activity.Handler
	ProvisionHandler *provision.Handler
	CompaniesHandler *companies.Handler
	PrefsHandler     *prefs.Handler
	I18NHandler      *i18n.Handler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		// Unauthenticated surface. Login and reset get a tighter rate
		// limit than the global one.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint)))
			params.AuthHandler.MountPublicRoutes(r)
			params.ResetHandler.MountRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(params.SessionManager))
			params.AuthHandler.MountRoutes(r)
		})
	})

	r.Route("/i18n", params.I18NHandler.MountRoutes)

	// Everything below requires a live session.
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(params.SessionManager))

		r.Route("/profile", func(r chi.Router) {
			params.ProfileHandler.MountRoutes(r)
			r.Route("/deletion", params.DeletionHandler.MountRoutes)
			r.Route("/export", params.ExportHandler.MountRoutes)
		})
		r.Route("/activity", params.ActivityHandler.MountRoutes)
		r.Route("/prefs", params.PrefsHandler.MountRoutes)
		r.Route("/companies", func(r chi.Router) {
			params.CompaniesHandler.MountRoutes(r)
			params.ProvisionHandler.MountRoutes(r)
		})
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
