package activity

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Handler exposes the activity timeline for the authenticated admin.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	filters := parseFilters(r)
	result, err := h.service.Timeline(r.Context(), sess.UserID, filters)
	if err != nil {
		h.logger.Error("activity timeline failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseFilters(r *http.Request) TimelineFilters {
	q := r.URL.Query()
	filters := TimelineFilters{Type: q.Get("type")}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.To = t
		}
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		filters.PageSize = v
	}
	return filters
}
