package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/procurex/procurex/internal/auth"
	"github.com/procurex/procurex/internal/platform/httpx"
)

// Handler exposes dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(auth.RequireAuth)
	r.Get("/stats", h.handleStats)
	r.Get("/stats/detailed", h.handleDetailedStats)
	r.Get("/rfq-status", h.handleRFQStatus)
	r.Get("/recent-activity", h.handleRecentActivity)
	r.Get("/top-suppliers", h.handleTopSuppliers)
	r.Get("/alerts", h.handleAlerts)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleDetailedStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DetailedStats(r.Context())
	if err != nil {
		h.logger.Error("dashboard detailed stats", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

type breakdownResponse struct {
	Statuses []StatusCount `json:"statuses"`
}

func (h *Handler) handleRFQStatus(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.RFQStatusBreakdown(r.Context())
	if err != nil {
		h.logger.Error("dashboard rfq status", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if breakdown == nil {
		breakdown = []StatusCount{}
	}
	httpx.JSON(w, http.StatusOK, breakdownResponse{Statuses: breakdown})
}

type activityResponse struct {
	Activities []Activity `json:"activities"`
	Total      int        `json:"total"`
}

func (h *Handler) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := h.service.RecentActivity(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.logger.Error("dashboard recent activity", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if feed == nil {
		feed = []Activity{}
	}
	httpx.JSON(w, http.StatusOK, activityResponse{Activities: feed, Total: len(feed)})
}

type topSuppliersResponse struct {
	Suppliers []TopSupplier `json:"suppliers"`
}

func (h *Handler) handleTopSuppliers(w http.ResponseWriter, r *http.Request) {
	top, err := h.service.TopSuppliers(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.logger.Error("dashboard top suppliers", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if top == nil {
		top = []TopSupplier{}
	}
	httpx.JSON(w, http.StatusOK, topSuppliersResponse{Suppliers: top})
}

type alertsResponse struct {
	Alerts []Alert `json:"alerts"`
	Total  int     `json:"total"`
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.logger.Error("dashboard alerts", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	httpx.JSON(w, http.StatusOK, alertsResponse{Alerts: alerts, Total: len(alerts)})
}

func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
