// Package domain contains the core entities of the incident tracker.
package domain

import (
	"fmt"
	"time"
)

// IncidentStatus represents the lifecycle stage of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusNew        IncidentStatus = "new"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
	IncidentStatusClosed     IncidentStatus = "closed"
)

// IsValid checks if the incident status is one of the known statuses.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusNew, IncidentStatusInProgress,
		IncidentStatusResolved, IncidentStatusClosed:
		return true
	}
	return false
}

// ParseIncidentStatus converts a raw string into an IncidentStatus.
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	status := IncidentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid incident status: %q", s)
	}
	return status, nil
}

// AllIncidentStatuses returns every known status in lifecycle order.
func AllIncidentStatuses() []IncidentStatus {
	return []IncidentStatus{
		IncidentStatusNew,
		IncidentStatusInProgress,
		IncidentStatusResolved,
		IncidentStatusClosed,
	}
}

// IncidentSource represents where an incident was reported from.
type IncidentSource string

// Incident sources.
const (
	IncidentSourceOperator   IncidentSource = "operator"
	IncidentSourceMonitoring IncidentSource = "monitoring"
	IncidentSourcePartner    IncidentSource = "partner"
)

// IsValid checks if the incident source is one of the known sources.
func (s IncidentSource) IsValid() bool {
	switch s {
	case IncidentSourceOperator, IncidentSourceMonitoring, IncidentSourcePartner:
		return true
	}
	return false
}

// ParseIncidentSource converts a raw string into an IncidentSource.
func ParseIncidentSource(s string) (IncidentSource, error) {
	source := IncidentSource(s)
	if !source.IsValid() {
		return "", fmt.Errorf("invalid incident source: %q", s)
	}
	return source, nil
}

// AllIncidentSources returns every known source.
func AllIncidentSources() []IncidentSource {
	return []IncidentSource{
		IncidentSourceOperator,
		IncidentSourceMonitoring,
		IncidentSourcePartner,
	}
}

// Incident is a tracked incident record.
// Only Status changes after creation.
type Incident struct {
	ID          int64
	Description string
	Status      IncidentStatus
	Source      IncidentSource
	CreatedAt   time.Time
}
