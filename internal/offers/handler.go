package offers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/procurex/procurex/internal/auth"
	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Handler exposes the offer-comparison endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers comparison routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(auth.RequireAuth)
	r.Get("/", h.handleCompare)
	r.Get("/{article}", h.handleCompareArticle)
}

type compareResponse struct {
	Articles []ArticleAggregate `json:"articles"`
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	filter := Filter{RequestNumber: r.URL.Query().Get("request")}
	aggregates, err := h.service.Compare(r.Context(), shared.PrincipalFromContext(r.Context()), filter)
	if err != nil {
		h.logger.Error("compare offers", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if aggregates == nil {
		aggregates = []ArticleAggregate{}
	}
	httpx.JSON(w, http.StatusOK, compareResponse{Articles: aggregates})
}

func (h *Handler) handleCompareArticle(w http.ResponseWriter, r *http.Request) {
	aggregate, err := h.service.CompareArticle(r.Context(),
		shared.PrincipalFromContext(r.Context()),
		chi.URLParam(r, "article"),
		r.URL.Query().Get("request"))
	if err != nil {
		h.logger.Error("compare article", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, aggregate)
}
