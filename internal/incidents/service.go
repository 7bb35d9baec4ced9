// Package incidents provides HTTP handlers and business logic for tracking incidents.
package incidents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/pkg/ctxlog"
)

// IncidentView is the outward-facing representation of an incident.
type IncidentView struct {
	ID          int64                 `json:"id"`
	Description string                `json:"description"`
	Status      domain.IncidentStatus `json:"status"`
	Source      domain.IncidentSource `json:"source"`
	CreatedAt   time.Time             `json:"created_at"`
}

// NewIncidentView converts a stored incident into its view.
func NewIncidentView(incident *domain.Incident) IncidentView {
	return IncidentView{
		ID:          incident.ID,
		Description: incident.Description,
		Status:      incident.Status,
		Source:      incident.Source,
		CreatedAt:   incident.CreatedAt,
	}
}

// Service implements incident business logic.
type Service struct {
	repo Repository
}

// NewService creates a new incident service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateIncidentInput holds data for creating an incident.
// Status and Source are expected to be validated already.
type CreateIncidentInput struct {
	Description string
	Status      domain.IncidentStatus
	Source      domain.IncidentSource
}

// CreateIncident stores a new incident and returns its view.
func (s *Service) CreateIncident(ctx context.Context, input CreateIncidentInput) (*IncidentView, error) {
	incident := &domain.Incident{
		Description: input.Description,
		Status:      input.Status,
		Source:      input.Source,
	}

	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	recordIncidentCreated(incident.Source)
	ctxlog.FromContext(ctx).Info("incident created",
		"incident_id", incident.ID,
		"status", incident.Status,
		"source", incident.Source,
	)

	view := NewIncidentView(incident)
	return &view, nil
}

// ListIncidents returns all incidents, or only those with the given status.
func (s *Service) ListIncidents(ctx context.Context, status *domain.IncidentStatus) ([]IncidentView, error) {
	incidents, err := s.repo.ListIncidents(ctx, IncidentFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	views := make([]IncidentView, 0, len(incidents))
	for i := range incidents {
		views = append(views, NewIncidentView(&incidents[i]))
	}
	return views, nil
}

// UpdateStatus replaces the status of an existing incident.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.IncidentStatus) (*IncidentView, error) {
	incident, err := s.repo.UpdateIncidentStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, fmt.Errorf("incident %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update incident status: %w", err)
	}

	recordStatusUpdate(incident.Status)
	ctxlog.FromContext(ctx).Info("incident status updated",
		"incident_id", incident.ID,
		"status", incident.Status,
	)

	view := NewIncidentView(incident)
	return &view, nil
}
