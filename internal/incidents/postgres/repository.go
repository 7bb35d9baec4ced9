// Package postgres provides PostgreSQL implementation of the incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/incident-tracker/internal/domain"
	"github.com/bissquit/incident-tracker/internal/incidents"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the incidents.Repository interface using PostgreSQL.
// Each call acquires a pooled connection for one statement and releases it
// before returning, on success and on error.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateIncident inserts a new incident and fills its ID and CreatedAt.
func (r *Repository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (description, status, source)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.Description,
		string(incident.Status),
		string(incident.Source),
	).Scan(&incident.ID, &incident.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// ListIncidents retrieves incidents ordered by id, optionally filtered by status.
func (r *Repository) ListIncidents(ctx context.Context, filter incidents.IncidentFilter) ([]domain.Incident, error) {
	query := `
		SELECT id, description, status, source, created_at
		FROM incidents
	`
	args := make([]interface{}, 0, 1)

	if filter.Status != nil {
		query += " WHERE status = $1"
		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		result = append(result, *incident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	return result, nil
}

// UpdateIncidentStatus sets the status of one incident in a single statement.
// Concurrent updates are not coordinated; the last commit wins.
func (r *Repository) UpdateIncidentStatus(ctx context.Context, id int64, status domain.IncidentStatus) (*domain.Incident, error) {
	query := `
		UPDATE incidents
		SET status = $2
		WHERE id = $1
		RETURNING id, description, status, source, created_at
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrRecordNotFound
		}
		return nil, fmt.Errorf("update incident status: %w", err)
	}

	return incident, nil
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var (
		incident domain.Incident
		status   string
		source   string
	)

	if err := row.Scan(
		&incident.ID,
		&incident.Description,
		&status,
		&source,
		&incident.CreatedAt,
	); err != nil {
		return nil, err
	}

	incident.Status = domain.IncidentStatus(status)
	incident.Source = domain.IncidentSource(source)
	return &incident, nil
}
