package events

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

// Handler manages event directory endpoints.
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

// MountRoutes registers event routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{eventID}", h.detail)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAuthenticated())
		r.Post("/", h.create)
		r.Get("/mine", h.listMine)
		r.Put("/{eventID}", h.update)
		r.Post("/{eventID}/publish", h.publish)
		r.Post("/{eventID}/unpublish", h.unpublish)
		r.Post("/{eventID}/categories", h.addCategory)
	})
}

type categoryPayload struct {
	Name      string   `json:"name" validate:"required"`
	AgeRange  string   `json:"age_range"`
	Distance  *float64 `json:"distance"`
	Elevation *float64 `json:"elevation"`
	Price     float64  `json:"price" validate:"gte=0"`
}

type eventPayload struct {
	Title            string            `json:"title" validate:"required"`
	Description      string            `json:"description"`
	Location         string            `json:"location" validate:"required"`
	Discipline       string            `json:"discipline" validate:"required,oneof=mtb ruta gravel urbano"`
	EventType        string            `json:"event_type" validate:"required,oneof=travesia carrera colazo travesia_y_carrera"`
	EventDate        time.Time         `json:"event_date" validate:"required"`
	EventTime        string            `json:"event_time"`
	ImageURL         string            `json:"image_url" validate:"omitempty,url"`
	RegistrationLink string            `json:"registration_link" validate:"omitempty,url"`
	PhotosLink       string            `json:"photos_link" validate:"omitempty,url"`
	Categories       []categoryPayload `json:"categories" validate:"dive"`
}

func (p eventPayload) toInput() CreateEventInput {
	input := CreateEventInput{
		Title:            p.Title,
		Description:      p.Description,
		Location:         p.Location,
		Discipline:       Discipline(p.Discipline),
		EventType:        EventType(p.EventType),
		EventDate:        p.EventDate,
		EventTime:        p.EventTime,
		ImageURL:         p.ImageURL,
		RegistrationLink: p.RegistrationLink,
		PhotosLink:       p.PhotosLink,
	}
	for _, cat := range p.Categories {
		input.Categories = append(input.Categories, CategoryInput{
			Name:      cat.Name,
			AgeRange:  cat.AgeRange,
			Distance:  cat.Distance,
			Elevation: cat.Elevation,
			Price:     cat.Price,
		})
	}
	return input
}

type eventResponse struct {
	ID               uuid.UUID `json:"id"`
	OrganizerID      uuid.UUID `json:"organizer_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location"`
	Discipline       string    `json:"discipline"`
	EventType        string    `json:"event_type"`
	EventDate        time.Time `json:"event_date"`
	EventTime        string    `json:"event_time,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	RegistrationLink string    `json:"registration_link,omitempty"`
	PhotosLink       string    `json:"photos_link,omitempty"`
	IsPublished      bool      `json:"is_published"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AgeRange  string    `json:"age_range,omitempty"`
	Distance  *float64  `json:"distance,omitempty"`
	Elevation *float64  `json:"elevation,omitempty"`
	Price     float64   `json:"price"`
}

type detailResponse struct {
	eventResponse
	Categories    []categoryResponse `json:"categories"`
	ApprovedCount int                `json:"approved_count"`
}

func toEventResponse(event Event) eventResponse {
	return eventResponse{
		ID:               event.ID,
		OrganizerID:      event.OrganizerID,
		Title:            event.Title,
		Description:      event.Description,
		Location:         event.Location,
		Discipline:       string(event.Discipline),
		EventType:        string(event.EventType),
		EventDate:        event.EventDate,
		EventTime:        event.EventTime,
		ImageURL:         event.ImageURL,
		RegistrationLink: event.RegistrationLink,
		PhotosLink:       event.PhotosLink,
		IsPublished:      event.IsPublished,
	}
}

func toEventResponses(events []Event) []eventResponse {
	out := make([]eventResponse, len(events))
	for i, event := range events {
		out[i] = toEventResponse(event)
	}
	return out
}

func toCategoryResponse(cat Category) categoryResponse {
	return categoryResponse{
		ID:        cat.ID,
		Name:      cat.Name,
		AgeRange:  cat.AgeRange,
		Distance:  cat.Distance,
		Elevation: cat.Elevation,
		Price:     cat.Price,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := ListFilters{
		Discipline: Discipline(query.Get("discipline")),
		EventType:  EventType(query.Get("event_type")),
		Query:      query.Get("q"),
	}
	events, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	detail, err := h.service.Detail(r.Context(), eventID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := detailResponse{
		eventResponse: toEventResponse(detail.Event),
		Categories:    make([]categoryResponse, len(detail.Categories)),
		ApprovedCount: detail.ApprovedCount,
	}
	for i, cat := range detail.Categories {
		resp.Categories[i] = toCategoryResponse(cat)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	payload, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}
	event, err := h.service.Create(r.Context(), actorID, payload.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	events, err := h.service.ListMine(r.Context(), actorID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	payload, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}
	event, err := h.service.Update(r.Context(), actorID, eventID, payload.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *Handler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	actorID, _ := authz.ActorID(r.Context())
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	if err := h.service.SetPublished(r.Context(), actorID, eventID, published); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": eventID, "is_published": published})
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	actorID, _ := authz.ActorID(r.Context())
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	var payload categoryPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cat, err := h.service.AddCategory(r.Context(), actorID, eventID, CategoryInput{
		Name:      payload.Name,
		AgeRange:  payload.AgeRange,
		Distance:  payload.Distance,
		Elevation: payload.Elevation,
		Price:     payload.Price,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCategoryResponse(cat))
}

func (h *Handler) decodeEvent(w http.ResponseWriter, r *http.Request) (eventPayload, bool) {
	var payload eventPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return payload, false
	}
	return payload, true
}
