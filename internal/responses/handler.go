package responses

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

// Handler exposes supplier-response endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers response routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Supplier-facing token submission.
	r.Post("/t/{token}", h.handleSubmit)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Post("/manual", h.handleSubmitManual)
		r.Get("/compare/{article}", h.handleCompare)
	})
}

type listResponse struct {
	Items      []Header          `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var in SubmitInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	header, err := h.service.Submit(r.Context(), chi.URLParam(r, "token"), in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, header)
}

func (h *Handler) handleSubmitManual(w http.ResponseWriter, r *http.Request) {
	var in ManualInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	header, err := h.service.SubmitManual(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, header)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Page: 1, PerPage: 20}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		filter.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		filter.PerPage = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("supplier_id"), 10, 64); err == nil {
		filter.SupplierID = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("rfq_id"), 10, 64); err == nil {
		filter.RFQID = v
	}
	items, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list responses", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if items == nil {
		items = []Header{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrValidation)
		return
	}
	header, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, header)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	article := chi.URLParam(r, "article")
	comparison, err := h.service.CompareArticle(r.Context(), article, r.URL.Query().Get("request"))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comparison)
}
