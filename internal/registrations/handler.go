package registrations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/platform/httpx"
	"github.com/grupetto/grupetto/internal/shared"
)

// IdempotencyPort guards duplicate submissions keyed by client header.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key string) error
}

// Handler manages registration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	idem      IdempotencyPort
	validator *validator.Validate
}

// NewHandler builds Handler instance. idem may be nil, disabling the
// Idempotency-Key header.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware, idem IdempotencyPort) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, idem: idem, validator: validator.New()}
}

// MountRoutes registers registration routes. Paths are absolute because
// the ledger spans both the event and the cyclist resource trees.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAuthenticated())
		r.Post("/events/{eventID}/registrations", h.register)
		r.Get("/events/{eventID}/registrations", h.listForEvent)
		r.Get("/events/{eventID}/registrations/me", h.status)
		r.Post("/registrations/{registrationID}/approve", h.approve)
		r.Post("/registrations/{registrationID}/reject", h.reject)
		r.Get("/me/registrations", h.listMine)
	})
}

type registerPayload struct {
	CategoryID *uuid.UUID `json:"category_id"`
	Notes      string     `json:"notes" validate:"max=500"`
}

type registrationResponse struct {
	ID         uuid.UUID  `json:"id"`
	EventID    uuid.UUID  `json:"event_id"`
	CyclistID  uuid.UUID  `json:"cyclist_id"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty"`
}

func toRegistrationResponse(reg Registration) registrationResponse {
	return registrationResponse{
		ID:         reg.ID,
		EventID:    reg.EventID,
		CyclistID:  reg.CyclistID,
		CategoryID: reg.CategoryID,
		Status:     string(reg.Status),
		Notes:      reg.Notes,
		CreatedAt:  reg.CreatedAt,
		ResolvedAt: reg.ResolvedAt,
		ResolvedBy: reg.ResolvedBy,
	}
}

func toRegistrationResponses(regs []Registration) []registrationResponse {
	out := make([]registrationResponse, len(regs))
	for i, reg := range regs {
		out[i] = toRegistrationResponse(reg)
	}
	return out
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	var payload registerPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), idemKey, "registrations:"+actorID.String()); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", "request already processed")
				return
			}
			httpx.RespondError(w, err)
			return
		}
	}

	reg, err := h.service.Register(r.Context(), actorID, RegisterInput{
		EventID:    eventID,
		CategoryID: payload.CategoryID,
		Notes:      payload.Notes,
	})
	if err != nil {
		if idemKey != "" && h.idem != nil {
			if derr := h.idem.Delete(r.Context(), idemKey); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRegistrationResponse(reg))
}

func (h *Handler) listForEvent(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	regs, err := h.service.ListForEvent(r.Context(), actorID, eventID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRegistrationResponses(regs))
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	reg, err := h.service.Status(r.Context(), actorID, eventID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Reject)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID, registrationID uuid.UUID) (Registration, error)) {
	actorID, _ := authz.ActorID(r.Context())
	registrationID, err := uuid.Parse(chi.URLParam(r, "registrationID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid registration id")
		return
	}
	reg, err := fn(r.Context(), actorID, registrationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	regs, err := h.service.ListMine(r.Context(), actorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRegistrationResponses(regs))
}
