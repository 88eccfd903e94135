package deletion

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Handler wires the deletion flow endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the deletion flow under the profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.state)
	r.Post("/", h.open)
	r.Post("/verify", h.verify)
	r.Post("/confirm", h.confirm)
	r.Delete("/", h.cancel)
}

type stateResponse struct {
	State    State `json:"state"`
	Verified bool  `json:"verified,omitempty"`
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	state, err := h.service.StateOf(r.Context(), sess.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stateResponse{State: state})
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	state, err := h.service.Open(r.Context(), sess.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stateResponse{State: state})
}

type verifyRequest struct {
	Phrase string `json:"phrase"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	var req verifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.CodeValidation, "invalid request body"))
		return
	}
	state, verified, err := h.service.Verify(r.Context(), sess.ID, req.Phrase)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stateResponse{State: state, Verified: verified})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	if err := h.service.Execute(r.Context(), sess); err != nil {
		h.logger.Error("account deletion failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stateResponse{State: StateDone})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	if err := h.service.Cancel(r.Context(), sess.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
