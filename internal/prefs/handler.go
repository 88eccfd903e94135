package prefs

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Handler exposes the preference store to the console.
type Handler struct {
	logger *slog.Logger
	store  *Store
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store *Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers preference routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/{key}", h.set)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	values, err := h.store.All(r.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("list prefs failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, values)
}

type setRequest struct {
	Value string `json:"value"`
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	key := chi.URLParam(r, "key")
	if !slices.Contains(KnownKeys, key) {
		httpx.RespondError(w, shared.EF(shared.CodeValidation, "key", "unknown preference key"))
		return
	}
	var req setRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.CodeValidation, "invalid request body"))
		return
	}
	if err := h.store.Set(r.Context(), sess.UserID, key, req.Value); err != nil {
		h.logger.Error("set pref failed", slog.String("key", key), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
