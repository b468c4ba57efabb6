package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/storeops/console/internal/assignment"
	"github.com/storeops/console/internal/auth"
	"github.com/storeops/console/internal/authrules"
	"github.com/storeops/console/internal/hierarchy"
	"github.com/storeops/console/internal/observability"
	"github.com/storeops/console/internal/rbac"
	"github.com/storeops/console/internal/roles"
	"github.com/storeops/console/internal/shared"
	"github.com/storeops/console/internal/stores"
	"github.com/storeops/console/internal/users"
	"github.com/storeops/console/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	HierarchyHandler   *hierarchy.Handler
	RulesHandler       *authrules.Handler
	AssignmentHandler  *assignment.Handler
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	StoresHandler      *stores.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
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

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Route("/hierarchy", params.HierarchyHandler.MountRoutes)
		r.Route("/rules", params.RulesHandler.MountRoutes)
		r.Route("/assignments", params.AssignmentHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/stores", params.StoresHandler.MountRoutes)
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
