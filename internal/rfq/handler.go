package rfq

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/procurex/procurex/internal/auth"
	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Handler exposes RFQ endpoints. Token routes are public so suppliers
// can act on a solicitation link without an account.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers RFQ routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Supplier-facing token routes.
	r.Post("/t/{token}/seen", h.handleMarkSeen)
	r.Post("/t/{token}/reject", h.handleReject)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/pending", h.handlePending)
		r.Get("/stats", h.handleStats)
		r.Get("/{id}", h.handleGet)
		r.Post("/", h.handleCreate)
	})
}

type listResponse struct {
	Items      []RFQ             `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, pagination, err := h.service.List(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("list rfqs", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if items == nil {
		items = []RFQ{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	items, pagination, err := h.service.ListPending(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("pending rfqs", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if items == nil {
		items = []RFQ{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.StatusStats(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if stats == nil {
		stats = []StatusCount{}
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	q, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.MarkSeen(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var in RejectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	rejection, err := h.service.Reject(r.Context(), chi.URLParam(r, "token"), in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rejection)
}

func filterFromQuery(r *http.Request) ListFilter {
	filter := ListFilter{
		Status:  r.URL.Query().Get("status"),
		Page:    1,
		PerPage: 20,
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		filter.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		filter.PerPage = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("supplier_id"), 10, 64); err == nil {
		filter.SupplierID = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("request_id"), 10, 64); err == nil {
		filter.RequestID = v
	}
	return filter
}
