package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	consolhttp "github.com/groundwork-re/groundwork/internal/consolidation/http"
	"github.com/groundwork-re/groundwork/internal/dedup"
	"github.com/groundwork-re/groundwork/internal/entity"
	"github.com/groundwork-re/groundwork/internal/interco"
	"github.com/groundwork-re/groundwork/internal/ledger"
	"github.com/groundwork-re/groundwork/internal/observability"
	"github.com/groundwork-re/groundwork/internal/ownership"
	"github.com/groundwork-re/groundwork/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	EntityHandler    *entity.Handler
	LedgerHandler    *ledger.Handler
	OwnershipHandler *ownership.Handler
	DedupHandler     *dedup.Handler
	IntercoHandler   *interco.Handler
	ConsolHandler    *consolhttp.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the standard stack and mounts all
// API surfaces under /api/v1.
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.EntityHandler != nil {
			api.Route("/entities", params.EntityHandler.MountRoutes)
		}
		if params.LedgerHandler != nil {
			api.Route("/ledger", params.LedgerHandler.MountRoutes)
		}
		if params.OwnershipHandler != nil {
			api.Group(params.OwnershipHandler.MountRoutes)
		}
		if params.DedupHandler != nil {
			api.Group(params.DedupHandler.MountRoutes)
		}
		if params.IntercoHandler != nil {
			api.Group(params.IntercoHandler.MountRoutes)
		}
		if params.ConsolHandler != nil {
			api.Group(params.ConsolHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
