package i18n

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
)

// Handler serves message catalogs to the console.
type Handler struct {
	logger  *slog.Logger
	catalog *Catalog
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, catalog *Catalog) *Handler {
	return &Handler{logger: logger, catalog: catalog}
}

// MountRoutes registers i18n routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{lang}", h.catalogFor)
}

type catalogResponse struct {
	Language string            `json:"language"`
	Messages map[string]string `json:"messages"`
}

func (h *Handler) catalogFor(w http.ResponseWriter, r *http.Request) {
	tag, messages := h.catalog.Resolve(chi.URLParam(r, "lang"))
	httpx.JSON(w, http.StatusOK, catalogResponse{
		Language: tag.String(),
		Messages: messages,
	})
}
