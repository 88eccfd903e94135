package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountPublicRoutes registers routes that must work without a session.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/cleanup", h.handleCleanup)
}

// MountRoutes registers routes behind the session middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        userView  `json:"user"`
}

type userView struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.CodeValidation, "invalid request body"))
		return
	}
	result, err := h.service.SignIn(r.Context(), req.Email, req.Password, r.RemoteAddr, r.UserAgent())
	if err != nil {
		if shared.CodeOf(err) == shared.CodeInternal {
			h.logger.Error("sign in failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.Session.CreatedAt.Add(h.service.SessionTTL()),
		User: userView{
			ID:     result.User.ID,
			Email:  result.User.Email,
			Status: result.User.Status,
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.SignOut(r.Context(), sess); err != nil {
		h.logger.Error("sign out failed", slog.Any("error", err))
		httpx.RespondError(w, shared.Wrap(shared.CodeInternal, "sign out failed", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	result := h.service.Cleanup(r.Context(), BearerToken(r))
	httpx.JSON(w, http.StatusOK, result)
}

// BearerToken extracts the Authorization bearer token, or "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
