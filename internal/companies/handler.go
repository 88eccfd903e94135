package companies

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Handler exposes company master data for the admin-creation screen.
type Handler struct {
	logger *slog.Logger
	repo   *Repository
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{companyID}", h.get)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companies, err := h.repo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list companies failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, companies)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.EF(shared.CodeValidation, "companyID", "invalid company id"))
		return
	}
	company, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}
