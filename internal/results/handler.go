package results

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/grupetto/grupetto/internal/authz"
	"github.com/grupetto/grupetto/internal/platform/httpx"
)

// Handler manages result endpoints.
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

// MountRoutes registers result routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/events/{eventID}/results", h.listForEvent)
	r.Get("/cyclists/{cyclistID}/results", h.listForCyclist)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAuthenticated())
		r.Post("/events/{eventID}/results", h.record)
	})
}

type recordPayload struct {
	CyclistID  uuid.UUID  `json:"cyclist_id" validate:"required"`
	CategoryID *uuid.UUID `json:"category_id"`
	Position   int        `json:"position" validate:"required,gte=1"`
	FinishTime string     `json:"finish_time"`
}

type resultResponse struct {
	ID         uuid.UUID  `json:"id"`
	EventID    uuid.UUID  `json:"event_id"`
	CyclistID  uuid.UUID  `json:"cyclist_id"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Position   int        `json:"position"`
	FinishTime string     `json:"finish_time,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toResultResponse(result Result) resultResponse {
	return resultResponse{
		ID:         result.ID,
		EventID:    result.EventID,
		CyclistID:  result.CyclistID,
		CategoryID: result.CategoryID,
		Position:   result.Position,
		FinishTime: result.FinishTime,
		CreatedAt:  result.CreatedAt,
	}
}

func toResultResponses(results []Result) []resultResponse {
	out := make([]resultResponse, len(results))
	for i, result := range results {
		out[i] = toResultResponse(result)
	}
	return out
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	var payload recordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Record(r.Context(), actorID, RecordInput{
		EventID:    eventID,
		CyclistID:  payload.CyclistID,
		CategoryID: payload.CategoryID,
		Position:   payload.Position,
		FinishTime: payload.FinishTime,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResultResponse(result))
}

func (h *Handler) listForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	results, err := h.service.ListForEvent(r.Context(), eventID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResultResponses(results))
}

func (h *Handler) listForCyclist(w http.ResponseWriter, r *http.Request) {
	cyclistID, err := uuid.Parse(chi.URLParam(r, "cyclistID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid cyclist id")
		return
	}
	results, err := h.service.ListForCyclist(r.Context(), cyclistID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResultResponses(results))
}
