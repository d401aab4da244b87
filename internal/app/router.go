package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/procurex/procurex/internal/auth"
	"github.com/procurex/procurex/internal/dashboard"
	"github.com/procurex/procurex/internal/observability"
	"github.com/procurex/procurex/internal/offers"
	"github.com/procurex/procurex/internal/orders"
	"github.com/procurex/procurex/internal/requests"
	"github.com/procurex/procurex/internal/responses"
	"github.com/procurex/procurex/internal/rfq"
	"github.com/procurex/procurex/internal/selections"
	"github.com/procurex/procurex/internal/suppliers"
	"github.com/procurex/procurex/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	Auth *auth.Middleware

	AuthHandler       *auth.Handler
	SuppliersHandler  *suppliers.Handler
	RequestsHandler   *requests.Handler
	RFQHandler        *rfq.Handler
	ResponsesHandler  *responses.Handler
	ComparisonHandler *offers.Handler
	SelectionsHandler *selections.Handler
	OrdersHandler     *orders.Handler
	DashboardHandler  *dashboard.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Procurex defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	var authMW func(http.Handler) http.Handler
	if params.Auth != nil {
		authMW = params.Auth.Authenticate
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    authMW,
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

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		r.Route("/requests", params.RequestsHandler.MountRoutes)
		r.Route("/rfqs", params.RFQHandler.MountRoutes)
		r.Route("/responses", params.ResponsesHandler.MountRoutes)
		r.Route("/comparison", params.ComparisonHandler.MountRoutes)
		r.Route("/selections", params.SelectionsHandler.MountRoutes)
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
