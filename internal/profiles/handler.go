package profiles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/platform/httpx"
)

// Handler manages profile endpoints.
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

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{userID}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAuthenticated())
		r.Get("/me", h.me)
		r.Put("/me", h.updateMe)
		r.Put("/{userID}", h.update)
	})
}

type updatePayload struct {
	FullName         string `json:"full_name" validate:"required,max=120"`
	Phone            string `json:"phone" validate:"max=40"`
	City             string `json:"city" validate:"max=120"`
	AvatarURL        string `json:"avatar_url" validate:"omitempty,url"`
	EmergencyContact string `json:"emergency_contact" validate:"max=200"`
}

type profileResponse struct {
	UserID           uuid.UUID `json:"user_id"`
	FullName         string    `json:"full_name"`
	Phone            string    `json:"phone,omitempty"`
	City             string    `json:"city,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
}

func toProfileResponse(profile Profile) profileResponse {
	return profileResponse{
		UserID:           profile.UserID,
		FullName:         profile.FullName,
		Phone:            profile.Phone,
		City:             profile.City,
		AvatarURL:        profile.AvatarURL,
		EmergencyContact: profile.EmergencyContact,
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	profile, err := h.service.Get(r.Context(), actorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	h.applyUpdate(w, r, actorID, actorID)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	h.applyUpdate(w, r, actorID, userID)
}

func (h *Handler) applyUpdate(w http.ResponseWriter, r *http.Request, actorID, userID uuid.UUID) {
	var payload updatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	profile, err := h.service.Update(r.Context(), actorID, userID, UpdateInput{
		FullName:         payload.FullName,
		Phone:            payload.Phone,
		City:             payload.City,
		AvatarURL:        payload.AvatarURL,
		EmergencyContact: payload.EmergencyContact,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(profile))
}
