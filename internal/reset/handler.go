package reset

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Handler wires the password reset endpoints. Both are public.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reset routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/password-reset", h.handleRequest)
	r.Post("/password-reset/confirm", h.handleConfirm)
}

type requestBody struct {
	Email string `json:"email"`
}

type requestResponse struct {
	Message string `json:"message"`
	// The standalone reset screen navigates back to login after this delay.
	RedirectAfterMS int `json:"redirect_after_ms"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req requestBody
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.CodeValidation, "invalid request body"))
		return
	}
	if err := h.service.Request(r.Context(), req.Email); err != nil {
		if shared.CodeOf(err) != shared.CodeValidation {
			h.logger.Error("password reset request failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, requestResponse{
		Message:         "If an account exists for this email, a reset link has been sent.",
		RedirectAfterMS: 3000,
	})
}

type confirmBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmBody
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.CodeValidation, "invalid request body"))
		return
	}
	if err := h.service.Confirm(r.Context(), req.Token, req.Password); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
