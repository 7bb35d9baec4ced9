package incidents

import (
	"context"

	"github.com/bissquit/incident-tracker/internal/domain"
)

// Repository defines the interface for incident storage.
// Every mutating method commits on its own; there is no batching.
type Repository interface {
	// CreateIncident persists incident and fills its ID and CreatedAt.
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)
	// UpdateIncidentStatus returns ErrRecordNotFound when no incident has id.
	UpdateIncidentStatus(ctx context.Context, id int64, status domain.IncidentStatus) (*domain.Incident, error)
}

// IncidentFilter holds filter options for listing incidents.
type IncidentFilter struct {
	Status *domain.IncidentStatus
}
