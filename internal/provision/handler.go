package provision

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nimbus-console/nimbus-console/internal/platform/httpx"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Handler wires the company-admin creation endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers provisioning routes under /companies.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{companyID}/admins", h.createAdmin)
}

func (h *Handler) createAdmin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.E(shared.CodeUnauthorized, "login required"))
		return
	}
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.EF(shared.CodeValidation, "companyID", "invalid company id"))
		return
	}
	var input CreateAdminInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, shared.E(shared.CodeValidation, "invalid request body"))
		return
	}
	created, err := h.service.CreateAdmin(r.Context(), companyID, input)
	if err != nil {
		if shared.CodeOf(err) == shared.CodeInternal {
			h.logger.Error("create admin failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}
