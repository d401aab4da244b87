package orders

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/procurex/procurex/internal/auth"
	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Handler exposes order endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(auth.RequireAuth)
	r.Get("/", h.handleList)
	r.Get("/{ref}", h.handleGet)
	r.Post("/", h.handleGenerate)
	r.Post("/{id}/validate", h.handleValidate)
	r.Post("/{id}/cancel", h.handleCancel)
}

type listResponse struct {
	Items      []Order           `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
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
	items, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if items == nil {
		items = []Order{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

// handleGet accepts either a numeric id or an order number.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	var order *Order
	var err error
	if strings.HasPrefix(ref, "ORD-") {
		order, err = h.service.GetByNumber(r.Context(), ref)
	} else {
		var id int64
		id, err = strconv.ParseInt(ref, 10, 64)
		if err != nil {
			httpx.RespondError(w, r, httpx.ErrValidation)
			return
		}
		order, err = h.service.Get(r.Context(), id)
	}
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var in GenerateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	result, err := h.service.Generate(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	order, err := h.service.Validate(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	order, err := h.service.Cancel(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}
