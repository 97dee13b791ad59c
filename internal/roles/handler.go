package roles

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/platform/httpx"
)

// Handler manages role-grant endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAuthenticated())
		r.Post("/requests", h.requestRole)
		r.Get("/me", h.myCapabilities)
		r.Get("/me/requests", h.myRequests)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.RoleSuperAdmin))
		r.Get("/requests/pending", h.listPending)
		r.Post("/requests/{grantID}/approve", h.approve)
		r.Post("/requests/{grantID}/reject", h.reject)
	})
}

type requestRolePayload struct {
	Role string `json:"role" validate:"required,oneof=cyclist organizer super_admin"`
}

type grantResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *uuid.UUID `json:"approved_by,omitempty"`
}

func toGrantResponse(grant RoleGrant) grantResponse {
	return grantResponse{
		ID:          grant.ID,
		UserID:      grant.UserID,
		Role:        string(grant.Role),
		Status:      string(grant.Status),
		RequestedAt: grant.RequestedAt,
		ApprovedAt:  grant.ApprovedAt,
		ApprovedBy:  grant.ApprovedBy,
	}
}

func (h *Handler) requestRole(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	var payload requestRolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := authz.ParseRole(payload.Role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	grant, err := h.service.RequestRole(r.Context(), actorID, role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toGrantResponse(grant))
}

func (h *Handler) myCapabilities(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	caps, err := h.service.ResolveCapabilities(r.Context(), actorID)
	if err != nil {
		h.logger.Error("resolve capabilities", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	roles := caps.Roles()
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": actorID, "roles": names})
}

func (h *Handler) myRequests(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	grants, err := h.service.ListForUser(r.Context(), actorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGrantResponses(grants))
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	grants, err := h.service.ListPending(r.Context(), actorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGrantResponses(grants))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Reject)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, adminID, grantID uuid.UUID) (RoleGrant, error)) {
	actorID, _ := authz.ActorID(r.Context())
	grantID, err := uuid.Parse(chi.URLParam(r, "grantID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid grant id")
		return
	}
	grant, err := fn(r.Context(), actorID, grantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toGrantResponse(grant))
}

func toGrantResponses(grants []RoleGrant) []grantResponse {
	out := make([]grantResponse, len(grants))
	for i, grant := range grants {
		out[i] = toGrantResponse(grant)
	}
	return out
}
