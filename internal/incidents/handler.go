package incidents

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/pkg/ctxlog"
	"github.com/bissquit/incident-tracker/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds the size of request bodies.
const maxBodyBytes = 1 << 20

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrNotFound, Status: http.StatusNotFound, Message: "Not found"},
	{Error: ErrIncidentIDMismatch, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: NewValidator(),
	}
}

// NewValidator returns a validator that knows the incident enum tags
// and reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("incident_status", func(fl validator.FieldLevel) bool {
		return domain.IncidentStatus(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("incident_source", func(fl validator.FieldLevel) bool {
		return domain.IncidentSource(fl.Field().String()).IsValid()
	})

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// RegisterRoutes registers incident routes. The caller is responsible for
// placing them behind the API-key guard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)
		r.Patch("/status", h.UpdateIncidentStatus)
		r.Patch("/{incident_id}/status", h.UpdateIncidentStatus)
	})
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Description string  `json:"description" validate:"required"`
	Status      *string `json:"status" validate:"omitnil,incident_status"`
	Source      string  `json:"source" validate:"required,incident_source"`
}

// ToInput converts the request to service input. Status defaults to new
// only when the field is absent or null.
func (r *CreateIncidentRequest) ToInput() CreateIncidentInput {
	status := domain.IncidentStatusNew
	if r.Status != nil {
		status = domain.IncidentStatus(*r.Status)
	}

	return CreateIncidentInput{
		Description: r.Description,
		Status:      status,
		Source:      domain.IncidentSource(r.Source),
	}
}

// UpdateIncidentStatusRequest represents the request body for changing status.
// IncidentID may be omitted when the id is given in the path.
type UpdateIncidentStatusRequest struct {
	IncidentID *int64 `json:"incident_id" validate:"omitempty,min=1"`
	Status     string `json:"status" validate:"required,incident_status"`
}

// IncidentResponse wraps a single incident.
type IncidentResponse struct {
	Incident IncidentView `json:"incident"`
}

// ListIncidentsResponse wraps a list of incidents.
type ListIncidentsResponse struct {
	Incidents []IncidentView `json:"incidents"`
}

// CreateIncident handles POST /incidents request.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if !h.decode(w, r, &req) {
		return
	}

	incident, err := h.service.CreateIncident(r.Context(), req.ToInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, IncidentResponse{Incident: *incident})
}

// ListIncidents handles GET /incidents request.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	var filter *domain.IncidentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParseIncidentStatus(raw)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = &status
	}

	incidents, err := h.service.ListIncidents(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, ListIncidentsResponse{Incidents: incidents})
}

// UpdateIncidentStatus handles PATCH /incidents/status and
// PATCH /incidents/{incident_id}/status requests.
func (h *Handler) UpdateIncidentStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateIncidentStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, ok := resolveIncidentID(w, r, req.IncidentID)
	if !ok {
		return
	}

	ctx := ctxlog.With(r.Context(), "incident_id", id)

	incident, err := h.service.UpdateStatus(ctx, id, domain.IncidentStatus(req.Status))
	if err != nil {
		httputil.HandleError(ctx, w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, IncidentResponse{Incident: *incident})
}

// decode reads and validates a JSON body into dst. It writes the error
// response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		httputil.ValidationError(w, err)
		return false
	}

	return true
}

// resolveIncidentID picks the incident id from the path or the body.
// When both are present they must agree.
func resolveIncidentID(w http.ResponseWriter, r *http.Request, bodyID *int64) (int64, bool) {
	raw := chi.URLParam(r, "incident_id")
	if raw == "" {
		if bodyID == nil {
			httputil.Error(w, http.StatusBadRequest, "incident_id is required")
			return 0, false
		}
		return *bodyID, true
	}

	pathID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || pathID < 1 {
		httputil.Error(w, http.StatusBadRequest, "invalid incident_id")
		return 0, false
	}

	if bodyID != nil && *bodyID != pathID {
		httputil.HandleError(r.Context(), w, ErrIncidentIDMismatch, errorMappings)
		return 0, false
	}

	return pathID, true
}
