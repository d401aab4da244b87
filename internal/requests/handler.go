package requests

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/procurex/procurex/internal/auth"
	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Handler exposes purchase-request endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers request routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(auth.RequireAuth)
	r.Get("/", h.handleList)
	r.Get("/awaiting-decision", h.handleAwaitingDecision)
	r.Get("/{number}", h.handleGet)
}

type listResponse struct {
	Items      []PurchaseRequest `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Page:     queryInt(r, "page", 1),
		PerPage:  queryInt(r, "per_page", 20),
	}
	items, pagination, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), filter)
	if err != nil {
		h.logger.Error("list requests", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if items == nil {
		items = []PurchaseRequest{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	pr, err := h.service.GetByNumber(r.Context(), number)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pr)
}

type awaitingResponse struct {
	*AwaitingSummary
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleAwaitingDecision(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Priority: r.URL.Query().Get("priority"),
		Page:     queryInt(r, "page", 1),
		PerPage:  queryInt(r, "per_page", 20),
	}
	summary, pagination, err := h.service.AwaitingDecision(r.Context(), shared.PrincipalFromContext(r.Context()), filter)
	if err != nil {
		h.logger.Error("awaiting decision", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, awaitingResponse{AwaitingSummary: summary, Pagination: pagination})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
