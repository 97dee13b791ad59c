package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/grupetto/grupetto/internal/auth"
	"github.com/grupetto/grupetto/internal/events"
	"github.com/grupetto/grupetto/internal/observability"
	"github.com/grupetto/grupetto/internal/profiles"
	"github.com/grupetto/grupetto/internal/registrations"
	"github.com/grupetto/grupetto/internal/results"
	"github.com/grupetto/grupetto/internal/roles"
	"github.com/grupetto/grupetto/internal/shared"
	"github.com/grupetto/grupetto/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler          *auth.Handler
	RolesHandler         *roles.Handler
	EventsHandler        *events.Handler
	RegistrationsHandler *registrations.Handler
	ResultsHandler       *results.Handler
	ProfilesHandler      *profiles.Handler

	JobsHandler *jobs.Handler
	Metrics     *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
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

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/roles", params.RolesHandler.MountRoutes)
	r.Route("/events", params.EventsHandler.MountRoutes)
	// Registration and result routes span /events, /registrations and /me,
	// so their handlers mount on the root router.
	params.RegistrationsHandler.MountRoutes(r)
	params.ResultsHandler.MountRoutes(r)
	r.Route("/profiles", params.ProfilesHandler.MountRoutes)

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
