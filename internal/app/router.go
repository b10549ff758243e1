package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-esg/meridian-esg/internal/assignment"
	"github.com/meridian-esg/meridian-esg/internal/consol"
	"github.com/meridian-esg/meridian-esg/internal/dashboard"
	"github.com/meridian-esg/meridian-esg/internal/hierarchy"
	"github.com/meridian-esg/meridian-esg/internal/ledger"
	"github.com/meridian-esg/meridian-esg/internal/observability"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
	"github.com/meridian-esg/meridian-esg/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	TaxonomyHandler   *taxonomy.Handler
	HierarchyHandler  *hierarchy.Handler
	AssignmentHandler *assignment.Handler
	LedgerHandler     *ledger.Handler
	ConsolHandler     *consol.Handler
	DashboardHandler  *dashboard.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/taxonomy", params.TaxonomyHandler.MountRoutes)
	r.Route("/hierarchy", params.HierarchyHandler.MountRoutes)
	r.Route("/assignments", params.AssignmentHandler.MountRoutes)
	r.Route("/ledger", params.LedgerHandler.MountRoutes)
	r.Route("/consolidation", params.ConsolHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
